package live

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// NewServer exposes the hub on /tracking/live next to a plain health check. It runs on its
// own listener because the API server cannot hijack connections for websockets.
func NewServer(address string, hub *Hub) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/tracking/live", hub)

	return &http.Server{
		Addr:              address,
		Handler:           withLogging(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		h.ServeHTTP(w, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("Live request")
	})
}
