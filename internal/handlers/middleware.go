package handlers

import (
	"net/http"
	"time"

	"pickup-service/internal/metrics"

	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// SecurityHeaders adds the standard security headers to every response
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("Referrer-Policy", "origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// CORS allows the given origins; "*" allows any origin
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", requestIDHeader},
		MaxAge:         300,
	})
}

// RequestLogger logs and counts every request. The router is used to
// resolve the route template so metric labels stay bounded.
type RequestLogger struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Router  *mux.Router
}

func (l RequestLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)

		route := l.route(r)
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		elapsed := time.Since(start)

		l.Metrics.ObserveRequest(r.Method, route, recorder.status, elapsed)
		if l.Logger != nil {
			l.Logger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.status),
				zap.Int64("duration_ms", elapsed.Milliseconds()),
				zap.Int("bytes", recorder.bytes),
				zap.String("request_id", reqID),
			)
		}
	})
}

func (l RequestLogger) route(r *http.Request) string {
	if l.Router == nil {
		return r.URL.Path
	}
	var match mux.RouteMatch
	if l.Router.Match(r, &match) && match.Route != nil {
		if tpl, err := match.Route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// Chain wraps router with the service middleware, outermost first:
// security headers, CORS, then request logging.
func Chain(router *mux.Router, logger *zap.Logger, m *metrics.Metrics, origins []string) http.Handler {
	logged := RequestLogger{Logger: logger, Metrics: m, Router: router}.Middleware(router)
	return SecurityHeaders(CORS(origins)(logged))
}
