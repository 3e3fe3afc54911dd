// Package compare measures agreement between two port scan outcomes. It is
// pure set arithmetic: no I/O, no side effects, deterministic output for
// the same pair of inputs.
package compare

import (
	"github.com/veriscan/veriscan/internal/ports"
)

// Result captures how our open-port set lines up against a reference
// scanner's set for the same target and port specification. All slices are
// in ascending port order.
type Result struct {
	// Ours holds the ports we found open.
	Ours []ports.Port `json:"ours"`
	// Theirs holds the ports the reference scanner found open.
	Theirs []ports.Port `json:"theirs"`
	// Matches holds ports both scanners agree are open.
	Matches []ports.Port `json:"matches"`
	// OursOnly holds ports only we reported open.
	OursOnly []ports.Port `json:"ours_only"`
	// TheirsOnly holds ports only the reference reported open.
	TheirsOnly []ports.Port `json:"theirs_only"`
	// Accuracy is the fraction of the reference's open ports we also
	// found, in [0, 1].
	Accuracy float64 `json:"accuracy"`
}

// Sets compares our open set against the reference's. Accuracy treats the
// reference as ground truth: it is the share of the reference's open ports
// that we matched. Two empty sets agree perfectly; finding ports the
// reference did not see scores zero because there is nothing to match
// against.
func Sets(ours, theirs ports.Set) Result {
	matches := ours.Intersect(theirs)

	return Result{
		Ours:       ours.Sorted(),
		Theirs:     theirs.Sorted(),
		Matches:    matches.Sorted(),
		OursOnly:   ours.Difference(theirs).Sorted(),
		TheirsOnly: theirs.Difference(ours).Sorted(),
		Accuracy:   accuracy(matches.Len(), ours.Len(), theirs.Len()),
	}
}

func accuracy(matched, ours, theirs int) float64 {
	if theirs == 0 {
		if ours == 0 {
			return 1.0
		}
		return 0.0
	}
	return float64(matched) / float64(theirs)
}

// Exact reports whether both scanners produced the same open set.
func (r Result) Exact() bool {
	return len(r.OursOnly) == 0 && len(r.TheirsOnly) == 0
}

// AccuracyPercent returns the accuracy scaled to [0, 100] for display.
func (r Result) AccuracyPercent() float64 {
	return r.Accuracy * 100
}
