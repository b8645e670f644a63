package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{
			name:       "remote addr with port",
			remoteAddr: "192.0.2.1:54321",
			want:       "192.0.2.1",
		},
		{
			name:       "single forwarded address wins",
			remoteAddr: "10.0.0.1:443",
			xff:        "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "first forwarded entry is the client",
			remoteAddr: "10.0.0.1:443",
			xff:        "203.0.113.7, 10.0.0.2, 10.0.0.1",
			want:       "203.0.113.7",
		},
		{
			name:       "garbage forwarded header falls back to remote addr",
			remoteAddr: "192.0.2.1:54321",
			xff:        "not-an-ip",
			want:       "192.0.2.1",
		},
		{
			name:       "ipv6 forwarded entry",
			remoteAddr: "10.0.0.1:443",
			xff:        "2001:db8::1",
			want:       "2001:db8::1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "192.0.2.9",
			want:       "192.0.2.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}

			assert.Equal(t, tt.want, ExtractClientIP(req))
		})
	}
}
