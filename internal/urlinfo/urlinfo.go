package urlinfo

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// ErrParse is returned when a URL cannot be tokenized at all. Callers are
// expected to treat it as maximal risk, never as a safe zero-vector.
var ErrParse = errors.New("urlinfo: unparseable url")

// Dotted-quad fallback for strings net.ParseIP rejects but that are still
// clearly meant to look like an IPv4 address.
var ipv4Pattern = regexp.MustCompile(`^(?:\d{1,3}\.){3}\d{1,3}$`)

// URL holds the five components the feature pipeline works on.
// Directory/file split rule: the final path segment counts as a file only
// if it contains a dot; otherwise the whole path is directory.
type URL struct {
	Raw       string
	Scheme    string
	Domain    string
	Directory string
	File      string
	Query     string
}

func Parse(raw string) (*URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}

	// A bare hostname like "example.com/login" parses into Path only,
	// leaving Host empty. Assume http like a browser address bar would.
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrParse, raw)
	}

	u := &URL{
		Raw:    raw,
		Scheme: parsed.Scheme,
		Domain: strings.ToLower(parsed.Host),
		Query:  parsed.RawQuery,
	}

	path := parsed.Path
	segments := strings.Split(path, "/")
	last := ""
	if len(segments) > 0 {
		last = segments[len(segments)-1]
	}
	if last != "" && strings.Contains(last, ".") {
		u.File = last
		u.Directory = path[:len(path)-len(last)]
	} else {
		u.Directory = path
	}

	return u, nil
}

// Host returns the domain without any port suffix.
func (u *URL) Host() string {
	if host, _, err := net.SplitHostPort(u.Domain); err == nil {
		return host
	}
	return strings.Trim(u.Domain, "[]")
}

// IsIPLiteral reports whether the host is an IPv4/IPv6 address. Parsing is
// authoritative; the regex catches malformed-but-IP-like strings such as
// "999.1.1.1" that phishers use to imitate addresses.
func (u *URL) IsIPLiteral() bool {
	host := u.Host()
	if net.ParseIP(host) != nil {
		return true
	}
	return ipv4Pattern.MatchString(host)
}
