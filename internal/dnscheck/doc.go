// Package dnscheck inspects a domain's DNS posture: record lookups for
// the common record types (A, AAAA, CNAME, MX, NS, TXT), reverse DNS
// for the resolved addresses, and HTTP/HTTPS reachability probes.
//
// Lookups retry on timeout with a short delay. Individual failures are
// recorded per record type in the report rather than failing the whole
// inspection.
package dnscheck
