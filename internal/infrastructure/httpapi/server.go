// Package httpapi exposes the query pipeline and spreadsheet catalog over
// a JSON HTTP API, with an SSE mode for streamed query responses.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/sheetql/sheetql/internal/application/importer"
	"github.com/sheetql/sheetql/internal/application/query"
	"github.com/sheetql/sheetql/internal/ports"
)

// Server wires the application services into an HTTP handler.
type Server struct {
	query    *query.Service
	importer *importer.Service
	log      ports.Logger
	router   *mux.Router
}

// NewServer builds the API router.
func NewServer(querySvc *query.Service, importerSvc *importer.Service, log ports.Logger) *Server {
	s := &Server{
		query:    querySvc,
		importer: importerSvc,
		log:      log,
		router:   mux.NewRouter(),
	}

	api := s.router.PathPrefix("/1.0").Subrouter()
	api.Use(s.requestIDMiddleware)
	api.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/spreadsheets", s.handleListSpreadsheets).Methods(http.MethodGet)
	api.HandleFunc("/spreadsheets", s.handleUploadSpreadsheet).Methods(http.MethodPost)
	api.HandleFunc("/spreadsheets/{id:[0-9]+}", s.handleDeleteSpreadsheet).Methods(http.MethodDelete)

	return s
}

// Handler returns the root handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		s.log.Debug("request", map[string]interface{}{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
