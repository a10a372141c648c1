package mirror

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"github.com/ramaerik/webscout/internal/model"
)

// maxSegmentLen caps individual path segment length. Long URL segments
// (signed asset URLs, base64 blobs in paths) would otherwise exceed
// filesystem name limits.
const maxSegmentLen = 200

// unsafeChars matches characters that are invalid in file names on at
// least one supported filesystem, plus control characters.
var unsafeChars = regexp.MustCompile(`[<>:"'\\|?*\x00-\x1f]`)

// reservedNames are Windows device names that cannot be used as file
// names regardless of extension.
var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true,
	"com5": true, "com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true,
	"lpt5": true, "lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// PathMapper assigns local relative paths to absolute URLs.
//
// Within one run the mapping is a bijection: no two distinct URLs map to
// the same path, and mapping the same URL twice returns the identical
// path. Determinism is what makes reference rewriting correct even if
// assets are resolved in a different order than they are rewritten.
//
// A PathMapper is not safe for concurrent use; one mirror run owns one
// mapper, matching the run-scoped lifecycle of all mirror state.
type PathMapper struct {
	// assigned maps absolute URLs to their assigned relative paths.
	assigned map[string]string

	// taken tracks which relative paths are already in use.
	taken map[string]bool
}

// NewPathMapper creates an empty PathMapper.
func NewPathMapper() *PathMapper {
	return &PathMapper{
		assigned: make(map[string]string),
		taken:    make(map[string]bool),
	}
}

// Map returns the local relative path for the given absolute URL,
// assigning one on first use. The returned path always uses forward
// slashes and never escapes the output directory.
func (m *PathMapper) Map(absoluteURL string) model.MappedPath {
	if assigned, ok := m.assigned[absoluteURL]; ok {
		return model.MappedPath{AbsoluteURL: absoluteURL, LocalRelativePath: assigned}
	}

	candidate := m.candidate(absoluteURL)

	// Two different URLs can sanitize to the same candidate (query
	// strings are dropped, unsafe characters collapse to underscores).
	// Disambiguate with a short hash of the full URL, which also keeps
	// the suffix deterministic.
	if m.taken[candidate] {
		candidate = addSuffix(candidate, shortHash(absoluteURL))
	}

	m.assigned[absoluteURL] = candidate
	m.taken[candidate] = true

	return model.MappedPath{AbsoluteURL: absoluteURL, LocalRelativePath: candidate}
}

// candidate derives the sanitized host+path candidate for a URL.
func (m *PathMapper) candidate(absoluteURL string) string {
	u, err := url.Parse(absoluteURL)
	if err != nil {
		// Unparsable URLs still need a stable home.
		return "assets/" + shortHash(absoluteURL)
	}

	segments := []string{sanitizeSegment(u.Hostname())}

	urlPath := u.EscapedPath()
	if unescaped, err := url.PathUnescape(urlPath); err == nil {
		urlPath = unescaped
	}

	for _, seg := range strings.Split(urlPath, "/") {
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		segments = append(segments, sanitizeSegment(seg))
	}

	// Directory URLs get an index file name.
	if len(segments) == 1 || strings.HasSuffix(urlPath, "/") {
		segments = append(segments, "index.html")
	}

	return strings.Join(segments, "/")
}

// sanitizeSegment makes one path segment safe for the target filesystem.
func sanitizeSegment(seg string) string {
	seg = unsafeChars.ReplaceAllString(seg, "_")
	seg = strings.Trim(seg, ". ")

	if seg == "" {
		return "_"
	}

	base := seg
	if dot := strings.IndexByte(seg, '.'); dot > 0 {
		base = seg[:dot]
	}
	if reservedNames[strings.ToLower(base)] {
		seg = "_" + seg
	}

	if len(seg) > maxSegmentLen {
		seg = seg[:maxSegmentLen]
	}

	return seg
}

// shortHash returns the first 8 hex characters of the URL's SHA-256 hash.
func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

// addSuffix inserts a disambiguating suffix before the file extension.
func addSuffix(p, suffix string) string {
	dot := strings.LastIndexByte(p, '.')
	slash := strings.LastIndexByte(p, '/')
	if dot > slash {
		return p[:dot] + "-" + suffix + p[dot:]
	}
	return p + "-" + suffix
}
