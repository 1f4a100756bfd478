package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/0xPuncker/jobcount-watcher/internal/config"
	"github.com/0xPuncker/jobcount-watcher/pkg/utils"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

func NewRouter(handler *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogger(handler.logger), allowCORS)
	SetupRoutes(router, handler)
	return router
}

// NewServer builds the status API server. The caller owns ListenAndServe and Shutdown.
func NewServer(handler *Handler, cfg config.ServerConfig) (*http.Server, error) {
	readTimeout, err := durationOr(cfg.ReadTimeout, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	writeTimeout, err := durationOr(cfg.WriteTimeout, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewRouter(handler),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  time.Minute,
	}, nil
}

func durationOr(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

// requestLogger tags every request with an ID, echoing a caller-supplied one,
// and logs the outcome once the handler returns.
func requestLogger(logger logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			logger.WithFields(logrus.Fields{
				"request_id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   utils.FormatDuration(time.Since(start)),
				"remote_ip":  r.RemoteAddr,
			}).Info("Request processed")
		})
	}
}

func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		h.Set("Access-Control-Expose-Headers", requestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
