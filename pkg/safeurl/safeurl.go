// Package safeurl decides whether a caller-supplied URL may be followed as
// a post-action redirect target.
package safeurl

import (
	"net/url"
	"strings"
)

// IsSafe reports whether raw is a safe redirect target. The URL must parse,
// carry both a scheme and a host, point at one of allowedHosts (or a
// subdomain of one) when the list is non-empty, and must not smuggle a
// second target through a protocol-relative path. With requireHTTPS set,
// only https URLs pass. Unparseable input is unsafe.
func IsSafe(raw string, allowedHosts []string, requireHTTPS bool) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	// scheme-less or host-less inputs are ambiguous: "//evil.com" and bare
	// paths both land here
	if u.Scheme == "" || u.Host == "" {
		return false
	}
	if len(allowedHosts) > 0 && !hostAllowed(u.Hostname(), allowedHosts) {
		return false
	}
	if requireHTTPS && u.Scheme != "https" {
		return false
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		// a path starting with "//" turns into a protocol-relative redirect
		// on the client
		return !strings.HasPrefix(u.Path, "//")
	}
	// exotic schemes: the path itself must not parse into a host
	nested, err := url.Parse(u.Path)
	if err != nil {
		return false
	}
	return nested.Host == ""
}

func hostAllowed(host string, allowed []string) bool {
	for _, domain := range allowed {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
