package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/milk9111/shipgrapple/metrics"
	"golang.org/x/time/rate"
)

const (
	debugRequestsPerSecond = 20
	debugBurst             = 40
)

// debugOrigins are the browser origins allowed on the debug router and the
// change stream. A trailing "*" stands for a port number.
var debugOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// isDebugOrigin reports whether origin may use the debug endpoints. Requests
// without an Origin header come from non-browser clients and are allowed.
func isDebugOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	for _, allowed := range debugOrigins {
		prefix, wild := strings.CutSuffix(allowed, "*")
		if !wild {
			if origin == allowed {
				return true
			}
			continue
		}
		port, ok := strings.CutPrefix(origin, prefix)
		if ok && port != "" && strings.Trim(port, "0123456789") == "" {
			return true
		}
	}
	return false
}

// newDebugRouter serves metrics, a JSON state snapshot and the replication
// change stream for s.
func newDebugRouter(s *sim, hub *changeHub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(rateLimit(rate.NewLimiter(debugRequestsPerSecond, debugBurst)))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: debugOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
	}))

	r.Handle("/metrics", metrics.Handler())
	r.Get("/state", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.snapshot()); err != nil {
			log.Printf("grapplesim: encode state: %v", err)
		}
	})
	if hub != nil {
		r.Get("/changes", hub.serveWS)
	}
	return r
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// serveDebug runs the debug server until ctx is done.
func serveDebug(ctx context.Context, addr string, handler http.Handler) {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Printf("grapplesim: debug server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("grapplesim: debug server: %v", err)
	}
}
