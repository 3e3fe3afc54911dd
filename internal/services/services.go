// Package services provides the well-known service table used to classify
// open ports. The table is static, read-only, and constant for the process
// lifetime; ports without an entry map to "unknown".
package services

import (
	"github.com/veriscan/veriscan/internal/ports"
)

// Unknown is the service name reported for ports without a table entry.
const Unknown = "unknown"

// table maps well-known TCP ports to service names.
var table = map[ports.Port]string{
	21:    "ftp",
	22:    "ssh",
	23:    "telnet",
	25:    "smtp",
	53:    "dns",
	80:    "http",
	110:   "pop3",
	143:   "imap",
	443:   "https",
	993:   "imaps",
	995:   "pop3s",
	1433:  "mssql",
	3306:  "mysql",
	3389:  "rdp",
	5432:  "postgresql",
	5900:  "vnc",
	6379:  "redis",
	27017: "mongodb",
}

// Service pairs a port with its well-known service name.
type Service struct {
	Port ports.Port
	Name string
}

// Lookup returns the service name for a port, or Unknown when the port has
// no table entry.
func Lookup(port ports.Port) string {
	if name, ok := table[port]; ok {
		return name
	}
	return Unknown
}

// Ports returns the table's key set. This is the "common ports" scan target.
func Ports() ports.Set {
	set := make(ports.Set, len(table))
	for p := range table {
		set.Add(p)
	}
	return set
}

// Known returns every table entry in ascending port order.
func Known() []Service {
	set := Ports()
	out := make([]Service, 0, len(table))
	for _, p := range set.Sorted() {
		out = append(out, Service{Port: p, Name: table[p]})
	}
	return out
}

// Count returns the number of table entries.
func Count() int {
	return len(table)
}
