package logger

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const Tag = "[logger]"

// Log wraps h, logging every request's method, path and duration at debug
// level the same way the rest of the orchestrator logs cluster calls.
func Log(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Debugln(Tag, ": started", r.Method, r.URL.Path)
		h.ServeHTTP(w, r)
		log.Debugln(Tag, ": finished", r.Method, r.URL.Path, "took", time.Since(start))
	})
}
