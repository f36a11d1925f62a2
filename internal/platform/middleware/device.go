package middleware

import (
	"context"
	"net/http"

	"github.com/mssola/useragent"
)

// DeviceInfo summarizes the caller's user agent for audit trails. It is
// descriptive metadata only; authorization never depends on it.
type DeviceInfo struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

type contextKeyDevice struct{}

// GetDevice retrieves parsed device info from the context.
func GetDevice(ctx context.Context) DeviceInfo {
	info, ok := ctx.Value(contextKeyDevice{}).(DeviceInfo)
	if !ok {
		return DeviceInfo{}
	}
	return info
}

// Device parses the User-Agent header once per request and stores the summary
// in the context for audit event enrichment.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := useragent.New(r.UserAgent())
		browser, version := ua.Browser()
		info := DeviceInfo{
			Browser: browser + " " + version,
			OS:      ua.OS(),
			Mobile:  ua.Mobile(),
			Bot:     ua.Bot(),
		}
		ctx := context.WithValue(r.Context(), contextKeyDevice{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
