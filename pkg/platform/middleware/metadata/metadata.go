// Package metadata captures client details for audit entries.
package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"minbar/pkg/requestcontext"
)

// ClientMetadata stores the client IP and a summarized User-Agent in the
// request context. Apply it before any handler that records audit entries.
//
// Proxy headers are only believed when trustProxy is set, that is when every
// request arrives through a proxy that overwrites them. Otherwise a caller
// could pick its own address and slip past per-client attempt limits.
func ClientMetadata(trustProxy bool) func(http.Handler) http.Handler {
	clientIP := RemoteIP
	if trustProxy {
		clientIP = ClientIPFromRequest
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithClientMetadata(r.Context(),
				clientIP(r),
				SummarizeUserAgent(r.Header.Get("User-Agent")),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SummarizeUserAgent reduces a raw User-Agent header to "Browser Version on OS".
// Unparseable agents are truncated rather than dropped.
func SummarizeUserAgent(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot: " + name
	}
	name, version := ua.Browser()
	if name == "" {
		if len(raw) > 64 {
			return raw[:64]
		}
		return raw
	}
	summary := name
	if version != "" {
		summary += " " + version
	}
	if os := ua.OS(); os != "" {
		summary += " on " + os
	}
	return summary
}

// ClientIPFromRequest extracts the client IP, preferring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For: client, proxy1, proxy2
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return RemoteIP(r)
}

// RemoteIP is the address of the peer that opened the connection.
func RemoteIP(r *http.Request) string {
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}
	return "unknown"
}
