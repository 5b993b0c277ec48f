package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/shopauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr only", nil, "192.168.1.1:12345", "192.168.1.1"},
		{"remote addr without port", nil, "192.168.1.1", "192.168.1.1"},
		{"x-forwarded-for first entry", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "192.168.1.1:1", "203.0.113.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": "203.0.113.2"}, "192.168.1.1:1", "203.0.113.2"},
		{"forwarded-for wins over real-ip", map[string]string{"X-Forwarded-For": "203.0.113.3", "X-Real-IP": "203.0.113.4"}, "192.168.1.1:1", "203.0.113.3"},
		{"unknown is skipped", map[string]string{"X-Forwarded-For": "unknown", "Proxy-Client-IP": "203.0.113.5"}, "192.168.1.1:1", "203.0.113.5"},
		{"cgi style header", map[string]string{"HTTP_CLIENT_IP": "203.0.113.6"}, "192.168.1.1:1", "203.0.113.6"},
		{"via before remote_addr", map[string]string{"HTTP_VIA": "proxy-1", "REMOTE_ADDR": "203.0.113.7"}, "192.168.1.1:1", "proxy-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.ClientIP(req))
		})
	}
}
