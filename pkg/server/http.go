// Package server provides the JSON HTTP front for a translate.Translator.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/batchxlate/pkg/language"
	"github.com/dasmlab/batchxlate/pkg/translate"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// maxBodyBytes bounds a translate request body. 5000 bytes of text
// JSON-escaped as \uXXXX stay well below it.
const maxBodyBytes = 1 << 20

// TranslateRequest is the body of POST /api/v1/translate. An empty Source
// means auto.
type TranslateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// TranslateResponse is returned on success.
type TranslateResponse struct {
	Segments      []string `json:"segments"`
	Source        string   `json:"source"`
	Target        string   `json:"target"`
	InferenceTime float64  `json:"inference_time_seconds"`
}

// Language is one entry of GET /api/v1/languages.
type Language struct {
	Code string `json:"code"`
	Wire string `json:"wire"`
	Name string `json:"name"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HTTPServer serves translation, the language list, health and metrics.
type HTTPServer struct {
	translator translate.Translator
	logger     *logrus.Logger
	port       int
}

// NewHTTPServer creates a new HTTP server on port.
func NewHTTPServer(translator translate.Translator, logger *logrus.Logger, port int) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTPServer{
		translator: translator,
		logger:     logger,
		port:       port,
	}
}

// Handler returns the route table.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/translate", s.withRequestID(s.handleTranslate))
	mux.HandleFunc("/api/v1/languages", s.withRequestID(s.handleLanguages))

	// Health check endpoint
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.WithFields(logrus.Fields{
		"port": s.port,
	}).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}

type requestIDKey struct{}

// withRequestID reuses the client's X-Request-ID or assigns a new one and
// echoes it in the response.
func (s *HTTPServer) withRequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	}
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

func (s *HTTPServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req TranslateRequest
	if err := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	log := s.logger.WithFields(logrus.Fields{
		"request_id":  requestID(r),
		"source_lang": req.Source,
		"target_lang": req.Target,
		"text_length": len(req.Text),
	})

	source := language.Auto
	if req.Source != "" {
		var err error
		if source, err = language.Parse(req.Source); err != nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("source: %v", err))
			return
		}
	}
	if req.Target == "" {
		s.writeError(w, r, http.StatusBadRequest, "target is required")
		return
	}
	target, err := language.Parse(req.Target)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("target: %v", err))
		return
	}

	startTime := time.Now()
	segments, err := s.translator.Translate(r.Context(), req.Text, source, target)
	if err != nil {
		log.WithError(err).Warn("HTTP translate failed")
		s.writeError(w, r, StatusFromError(err), err.Error())
		return
	}

	inferenceTime := time.Since(startTime).Seconds()
	log.WithFields(logrus.Fields{
		"segments":       len(segments),
		"inference_time": inferenceTime,
	}).Info("HTTP translate completed")

	s.writeJSON(w, http.StatusOK, TranslateResponse{
		Segments:      segments,
		Source:        source.WireForm(),
		Target:        target.WireForm(),
		InferenceTime: inferenceTime,
	})
}

func (s *HTTPServer) handleLanguages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	codes, err := s.translator.SupportedLanguages(r.Context())
	if err != nil {
		s.writeError(w, r, StatusFromError(err), err.Error())
		return
	}

	langs := make([]Language, 0, len(codes))
	for _, c := range codes {
		langs = append(langs, Language{Code: c.String(), Wire: c.WireForm(), Name: c.Name()})
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"languages": langs})
}

// handleHealth provides a simple liveness check. It does not contact the
// upstream endpoint.
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// StatusFromError maps translation errors onto HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, translate.ErrInvalidInput), errors.Is(err, language.ErrUnknownLanguage):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, translate.ErrTransport), errors.Is(err, translate.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg, RequestID: requestID(r)})
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := sonic.ConfigDefault.Marshal(v)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal JSON response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
