// Package server is the docent HTTP service: it streams generations for
// clients that do not hold an API key and hosts shared guidebooks.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/docent/generate"
	"github.com/dgnsrekt/docent/internal/share"
	"github.com/dgnsrekt/docent/tts"
)

// Error messages returned to clients.
const (
	msgMethodNotAllowed = "허용되지 않은 메소드입니다."
	msgMisconfigured    = "서버 설정 오류입니다."
	msgBadBody          = "잘못된 요청 본문입니다."
	msgGenerateFailed   = "AI로부터 응답을 생성하는 데 실패했습니다."
	msgTooManyRequests  = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."
)

const defaultMIMEType = "image/jpeg"

// Upstream produces a text stream for a request.
type Upstream interface {
	Generate(ctx context.Context, req generate.Request) (tts.Stream, error)
}

// Server routes the docent endpoints.
type Server struct {
	upstream Upstream
	shares   *share.Store
	limiter  *clientLimiter
	metrics  bool
	logger   *log.Logger
	mux      *http.ServeMux
}

// New creates a server. A nil upstream means no API key is configured and
// every generate request fails with 500; a nil store disables sharing.
func New(cfg Config, upstream Upstream, shares *share.Store) *Server {
	s := &Server{
		upstream: upstream,
		shares:   shares,
		limiter:  newClientLimiter(cfg.RequestsPerMinute),
		metrics:  cfg.MetricsEnabled,
		logger:   log.WithPrefix("server"),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("/api/generate", s.instrument("generate", http.HandlerFunc(s.handleGenerate)))
	if s.shares != nil {
		h := share.NewHandler(s.shares, sharesTotal.Inc)
		s.mux.Handle("/api/share", s.instrument("share", h))
	}
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics {
		s.mux.Handle("/metrics", promhttp.Handler())
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down within
// timeout.
func (s *Server) Run(ctx context.Context, addr string, timeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-ticker.C:
				s.limiter.prune(now.Add(-10 * time.Minute))
			}
		}
	})
	return g.Wait()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument rate limits an endpoint, tags each request with an id and
// counts responses.
func (s *Server) instrument(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		defer func() {
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
			s.logger.Debug("Request", "id", id, "endpoint", endpoint, "method", r.Method,
				"status", rec.status, "took", time.Since(start))
		}()

		if !s.limiter.allow(r) {
			rateLimited.Inc()
			writeJSON(rec, http.StatusTooManyRequests, generate.Event{Error: msgTooManyRequests})
			return
		}
		next.ServeHTTP(rec, r)
	})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, msgMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}
	if s.upstream == nil {
		s.logger.Error("No upstream API key is configured")
		writeJSON(w, http.StatusInternalServerError, generate.Event{Error: msgMisconfigured})
		return
	}

	req, err := decodeRequest(w, r)
	if err != nil {
		s.logger.Debug("Rejecting request body", "err", err)
		writeJSON(w, http.StatusBadRequest, generate.Event{Error: msgBadBody})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}
	flush()

	fail := func(err error) {
		streamErrors.Inc()
		s.logger.Error("Generation failed", "err", err)
		_ = generate.WriteEvent(w, generate.Event{Error: msgGenerateFailed})
		flush()
	}

	stream, err := s.upstream.Generate(r.Context(), req)
	if err != nil {
		fail(err)
		return
	}
	for chunk, err := range stream {
		if err != nil {
			if r.Context().Err() == nil {
				fail(err)
			}
			return
		}
		if chunk.Text == "" {
			continue
		}
		if err := generate.WriteEvent(w, generate.Event{Text: chunk.Text}); err != nil {
			s.logger.Debug("Client went away", "err", err)
			return
		}
		chunksTotal.Inc()
		flush()
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (generate.Request, error) {
	var body generate.ProxyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 32<<20))
	if err := dec.Decode(&body); err != nil {
		return generate.Request{}, err
	}

	req := generate.Request{
		Prompt:            body.Prompt,
		SystemInstruction: body.SystemInstruction,
	}
	if body.Base64Image != "" {
		data, err := base64.StdEncoding.DecodeString(body.Base64Image)
		if err != nil {
			return generate.Request{}, err
		}
		mime := body.MIMEType
		if mime == "" {
			mime = defaultMIMEType
		}
		req.Image = &generate.Image{Data: data, MIMEType: mime}
	}
	if req.Prompt == "" && req.Image == nil {
		return generate.Request{}, errors.New("request has neither prompt nor image")
	}
	return req, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "docent",
		"upstream":  s.upstream != nil,
		"share":     s.shares != nil,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
