package httpx

import (
	"net"
	"net/http"
	"strings"
)

// clientIPHeaders are consulted in order. The HTTP_* and REMOTE_ADDR names
// are what some CGI-style proxies forward verbatim.
var clientIPHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"HTTP_X_FORWARDED_FOR",
	"HTTP_X_FORWARDED",
	"HTTP_X_CLUSTER_CLIENT_IP",
	"HTTP_CLIENT_IP",
	"HTTP_FORWARDED_FOR",
	"HTTP_FORWARDED",
	"HTTP_VIA",
	"REMOTE_ADDR",
}

// ClientIP returns the first usable client address from the proxy headers,
// falling back to the connection's peer address. Empty and "unknown" header
// values are skipped; a comma-separated list yields its first entry.
func ClientIP(r *http.Request) string {
	for _, h := range clientIPHeaders {
		v := strings.TrimSpace(r.Header.Get(h))
		if v == "" || strings.EqualFold(v, "unknown") {
			continue
		}
		if first, _, ok := strings.Cut(v, ","); ok {
			v = strings.TrimSpace(first)
		}
		return v
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
