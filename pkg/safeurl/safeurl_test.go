package safeurl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lapak/pkg/safeurl"
)

func TestIsSafe(t *testing.T) {
	good := []string{"good.com"}

	tests := []struct {
		name         string
		url          string
		allowedHosts []string
		requireHTTPS bool
		want         bool
	}{
		{
			name:         "allowed host",
			url:          "https://good.com/x",
			allowedHosts: good,
			want:         true,
		},
		{
			name:         "foreign host",
			url:          "https://evil.com/x",
			allowedHosts: good,
			want:         false,
		},
		{
			name:         "protocol-relative",
			url:          "//evil.com",
			allowedHosts: good,
			want:         false,
		},
		{
			name:         "not a url at all",
			url:          "not a url",
			allowedHosts: good,
			want:         false,
		},
		{
			name:         "http rejected when https required",
			url:          "http://good.com",
			allowedHosts: good,
			requireHTTPS: true,
			want:         false,
		},
		{
			name:         "https accepted when https required",
			url:          "https://good.com/x",
			allowedHosts: good,
			requireHTTPS: true,
			want:         true,
		},
		{
			name:         "subdomain allowed",
			url:          "https://sub.good.com/x",
			allowedHosts: good,
			want:         true,
		},
		{
			name:         "deep subdomain allowed",
			url:          "https://a.b.good.com/x",
			allowedHosts: good,
			want:         true,
		},
		{
			name:         "suffix without dot is not a subdomain",
			url:          "https://evilgood.com/x",
			allowedHosts: good,
			want:         false,
		},
		{
			name:         "port is ignored for the host check",
			url:          "https://good.com:8443/x",
			allowedHosts: good,
			want:         true,
		},
		{
			name:         "empty string",
			url:          "",
			allowedHosts: good,
			want:         false,
		},
		{
			name:         "relative path",
			url:          "/my_listings",
			allowedHosts: good,
			want:         false,
		},
		{
			name:         "double-slash path on https",
			url:          "https://good.com//evil.com",
			allowedHosts: good,
			want:         false,
		},
		{
			name:         "exotic scheme with clean path",
			url:          "ftp://good.com/file",
			allowedHosts: good,
			want:         true,
		},
		{
			name:         "exotic scheme smuggling a host in the path",
			url:          "ftp://good.com//evil.com/x",
			allowedHosts: good,
			want:         false,
		},
		{
			name:         "any host passes without an allowlist",
			url:          "https://anywhere.example/x",
			allowedHosts: nil,
			want:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := safeurl.IsSafe(tt.url, tt.allowedHosts, tt.requireHTTPS)
			assert.Equal(t, tt.want, got)
		})
	}
}
