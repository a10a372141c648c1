package model

import "time"

// DNSRecordSet holds the values resolved for one DNS record type.
type DNSRecordSet struct {
	// Type is the record type (A, AAAA, CNAME, MX, NS, TXT).
	Type string `json:"type"`

	// Values are the resolved record values, in resolver order.
	Values []string `json:"values,omitempty"`

	// Err describes a lookup failure for this record type. A record type
	// with no records is not a failure; Values is simply empty.
	Err string `json:"error,omitempty"`
}

// ReverseLookup is the reverse DNS result for one resolved IP address.
type ReverseLookup struct {
	// IP is the address that was looked up.
	IP string `json:"ip"`

	// Names are the PTR names found for the address.
	Names []string `json:"names,omitempty"`
}

// HTTPProbe records the result of a reachability probe against the domain.
type HTTPProbe struct {
	// URL is the probed URL, including scheme.
	URL string `json:"url"`

	// StatusCode is the response status, zero if the probe failed.
	StatusCode int `json:"status_code,omitempty"`

	// ResponseTime is how long the probe took.
	ResponseTime time.Duration `json:"response_time,omitempty"`

	// Server is the Server response header, if any.
	Server string `json:"server,omitempty"`

	// Err describes a probe failure.
	Err string `json:"error,omitempty"`
}

// DNSReport collects everything the DNS inspector learned about a domain.
type DNSReport struct {
	// Domain is the inspected domain, with any URL scheme stripped.
	Domain string `json:"domain"`

	// Records holds one entry per inspected record type, in the fixed
	// inspection order.
	Records []DNSRecordSet `json:"records"`

	// Reverse holds reverse DNS results for the domain's A/AAAA records.
	Reverse []ReverseLookup `json:"reverse,omitempty"`

	// Probes holds HTTP and HTTPS reachability results.
	Probes []HTTPProbe `json:"probes,omitempty"`

	// CheckedAt is when the inspection completed.
	CheckedAt time.Time `json:"checked_at"`
}

// ResolvedIPs returns all IP addresses from the A and AAAA record sets.
func (r *DNSReport) ResolvedIPs() []string {
	var ips []string
	for _, rs := range r.Records {
		if rs.Type == "A" || rs.Type == "AAAA" {
			ips = append(ips, rs.Values...)
		}
	}
	return ips
}
