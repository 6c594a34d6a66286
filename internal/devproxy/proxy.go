// Package devproxy relays every request on a public port to the backend
// during local development.
package devproxy

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"oriani/internal/logging"
)

// New returns a handler forwarding requests to backend. Method, path,
// query, headers and body are relayed unchanged except for Host and the
// hop-by-hop headers. Connection failures answer 502 text/plain.
func New(backend *url.URL) http.Handler {
	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(backend)
		},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Del("Transfer-Encoding")
			resp.Header.Del("Connection")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("backend unreachable")
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprintf(w, "Proxy Error: %v", err)
		},
	}
	return logRequests(proxy)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Info().
			Str("remote_addr", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.RequestURI()).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("proxied")
	})
}
