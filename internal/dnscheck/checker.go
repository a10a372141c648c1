package dnscheck

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ramaerik/webscout/internal/model"
)

// Default lookup settings.
const (
	// DefaultTimeout bounds each DNS lookup and HTTP probe.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the number of attempts per record type.
	// Transient timeouts are common on congested resolvers, so each
	// lookup gets a few tries before it is reported as failed.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the wait between retry attempts.
	DefaultRetryDelay = 1 * time.Second
)

// recordTypes lists the record types inspected, in report order.
var recordTypes = []string{"A", "AAAA", "CNAME", "MX", "NS", "TXT"}

// Checker inspects a domain's DNS records and HTTP reachability.
//
// Design decision: We use the standard net.Resolver rather than a DNS
// client library because every lookup we need (A, AAAA, CNAME, MX, NS,
// TXT, PTR) is covered by the resolver API, which also honors context
// cancellation. A wire-level client would only buy us record types the
// report does not show.
type Checker struct {
	// resolver performs DNS lookups. Replaceable for tests.
	resolver *net.Resolver

	// httpClient performs HTTP reachability probes.
	httpClient *http.Client

	// timeout bounds each individual lookup.
	timeout time.Duration

	// maxRetries is the attempt bound per record type.
	maxRetries int

	// retryDelay is the wait between attempts.
	retryDelay time.Duration

	// logger is used for lookup progress logging.
	logger *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout sets the per-lookup timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithResolver sets a custom resolver. Used in tests to avoid real
// network lookups.
func WithResolver(resolver *net.Resolver) Option {
	return func(c *Checker) {
		c.resolver = resolver
	}
}

// WithHTTPClient sets a custom HTTP client for reachability probes.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.httpClient = client
	}
}

// WithMaxRetries sets the attempt bound per record type.
func WithMaxRetries(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// New creates a Checker with default settings.
func New(opts ...Option) *Checker {
	c := &Checker{
		resolver:   net.DefaultResolver,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// Check inspects the given domain: record lookups for each supported
// type, reverse DNS for the resolved addresses, and HTTP/HTTPS probes.
// Individual lookup failures are recorded in the report; the error
// return is reserved for an empty domain or a cancelled context.
func (c *Checker) Check(ctx context.Context, domain string) (*model.DNSReport, error) {
	domain = ExtractDomain(domain)
	if domain == "" {
		return nil, fmt.Errorf("empty domain")
	}

	c.logger.Info("checking domain", "domain", domain)

	dnsReport := &model.DNSReport{
		Domain:    domain,
		CheckedAt: time.Now(),
	}

	for _, recordType := range recordTypes {
		if err := ctx.Err(); err != nil {
			return dnsReport, err
		}

		recordSet := model.DNSRecordSet{Type: recordType}
		values, err := c.lookupWithRetry(ctx, domain, recordType)
		if err != nil {
			c.logger.Debug("lookup failed",
				"domain", domain,
				"type", recordType,
				"error", err,
			)
			recordSet.Err = err.Error()
		} else {
			recordSet.Values = values
		}
		dnsReport.Records = append(dnsReport.Records, recordSet)
	}

	dnsReport.Reverse = c.reverseLookups(ctx, dnsReport.ResolvedIPs())
	dnsReport.Probes = c.httpProbes(ctx, domain)

	return dnsReport, nil
}

// lookupWithRetry performs one record-type lookup with bounded retries.
// Only timeouts are retried; NXDOMAIN and "no such record" answers are
// final on the first attempt.
func (c *Checker) lookupWithRetry(ctx context.Context, domain, recordType string) ([]string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
		values, err := c.lookup(lookupCtx, domain, recordType)
		cancel()

		if err == nil {
			return values, nil
		}
		lastErr = err

		if !isTimeout(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

// isTimeout reports whether the lookup error is worth retrying.
func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

// lookup dispatches one lookup by record type.
func (c *Checker) lookup(ctx context.Context, domain, recordType string) ([]string, error) {
	switch recordType {
	case "A", "AAAA":
		network := "ip4"
		if recordType == "AAAA" {
			network = "ip6"
		}
		ips, err := c.resolver.LookupIP(ctx, network, domain)
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(ips))
		for _, ip := range ips {
			values = append(values, ip.String())
		}
		return values, nil

	case "CNAME":
		cname, err := c.resolver.LookupCNAME(ctx, domain)
		if err != nil {
			return nil, err
		}
		// LookupCNAME returns the domain itself when no CNAME exists.
		if strings.TrimSuffix(cname, ".") == domain {
			return nil, nil
		}
		return []string{cname}, nil

	case "MX":
		mxs, err := c.resolver.LookupMX(ctx, domain)
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(mxs))
		for _, mx := range mxs {
			values = append(values, fmt.Sprintf("%d %s", mx.Pref, mx.Host))
		}
		return values, nil

	case "NS":
		nss, err := c.resolver.LookupNS(ctx, domain)
		if err != nil {
			return nil, err
		}
		values := make([]string, 0, len(nss))
		for _, ns := range nss {
			values = append(values, ns.Host)
		}
		return values, nil

	case "TXT":
		return c.resolver.LookupTXT(ctx, domain)

	default:
		return nil, fmt.Errorf("unsupported record type: %s", recordType)
	}
}

// reverseLookups performs PTR lookups for the given addresses.
// A missing PTR record is normal and recorded with an empty name list.
func (c *Checker) reverseLookups(ctx context.Context, ips []string) []model.ReverseLookup {
	lookups := make([]model.ReverseLookup, 0, len(ips))
	for _, ip := range ips {
		lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
		names, err := c.resolver.LookupAddr(lookupCtx, ip)
		cancel()

		rev := model.ReverseLookup{IP: ip}
		if err == nil {
			rev.Names = names
		}
		lookups = append(lookups, rev)
	}
	return lookups
}

// httpProbes checks HTTP and HTTPS reachability of the domain.
func (c *Checker) httpProbes(ctx context.Context, domain string) []model.HTTPProbe {
	probes := make([]model.HTTPProbe, 0, 2)
	for _, scheme := range []string{"http", "https"} {
		target := scheme + "://" + domain
		probe := model.HTTPProbe{URL: target}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			probe.Err = err.Error()
			probes = append(probes, probe)
			continue
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			probe.Err = err.Error()
			probes = append(probes, probe)
			continue
		}
		probe.ResponseTime = time.Since(start)
		probe.StatusCode = resp.StatusCode
		probe.Server = resp.Header.Get("Server")
		resp.Body.Close() //nolint:errcheck,gosec // Body content is not used

		probes = append(probes, probe)
	}
	return probes
}

// ExtractDomain strips the scheme, path, port, and credentials from a
// URL or host string, leaving the bare hostname.
func ExtractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
			return u.Hostname()
		}
	}

	// Bare "host", "host/path", or "host:port" forms.
	raw = strings.SplitN(raw, "/", 2)[0]
	if host, _, err := net.SplitHostPort(raw); err == nil {
		return host
	}
	return raw
}
