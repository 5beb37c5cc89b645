// Package server serves the charts and steps of a finished run over HTTP.
// It plays the role of an interactive chart window.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rxtech-lab/argo-msri/internal/chart"
	"github.com/rxtech-lab/argo-msri/internal/logger"
	"github.com/rxtech-lab/argo-msri/internal/runner"
	"github.com/rxtech-lab/argo-msri/internal/surface"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
	"go.uber.org/zap"
)

// DefaultStreamInterval is the pause between steps replayed on /ws/steps.
const DefaultStreamInterval = 50 * time.Millisecond

// Config holds what the server shows.
type Config struct {
	// Result is the run to chart. May be nil.
	Result *runner.Result
	// Grid is the surface to chart. May be nil.
	Grid *surface.Grid
	// StreamInterval is the pause between replayed steps.
	StreamInterval time.Duration
}

// StepMessage is the JSON form of one step. Non-finite values are null.
type StepMessage struct {
	Step      int      `json:"step"`
	Alpha     float64  `json:"alpha"`
	Price     *float64 `json:"price"`
	Mu        *float64 `json:"mu"`
	Indicator *float64 `json:"indicator"`
}

// NewStepMessage converts a sample to its JSON form.
func NewStepMessage(sample tracker.Sample) StepMessage {
	return StepMessage{
		Step:      sample.Step,
		Alpha:     sample.Alpha,
		Price:     finiteOrNil(sample.Price),
		Mu:        finiteOrNil(sample.Mu),
		Indicator: finiteOrNil(sample.Indicator),
	}
}

// SummaryMessage is the JSON form of a run summary. Non-finite values are null.
type SummaryMessage struct {
	ID                  string    `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	Steps               int       `json:"steps"`
	Seed                float64   `json:"seed"`
	Momentum            float64   `json:"momentum"`
	FinalMu             *float64  `json:"final_mu"`
	FinalPrice          *float64  `json:"final_price"`
	FinalIndicator      *float64  `json:"final_indicator"`
	MinIndicator        *float64  `json:"min_indicator"`
	MaxIndicator        *float64  `json:"max_indicator"`
	NonFiniteIndicators int       `json:"non_finite_indicators"`
	ExactPrice          string    `json:"exact_price"`
	PriceDrift          *float64  `json:"price_drift"`
}

// NewSummaryMessage converts a summary to its JSON form.
func NewSummaryMessage(summary runner.Summary) SummaryMessage {
	return SummaryMessage{
		ID:                  summary.ID,
		Timestamp:           summary.Timestamp,
		Steps:               summary.Steps,
		Seed:                summary.Seed,
		Momentum:            summary.Momentum,
		FinalMu:             finiteOrNil(summary.FinalMu),
		FinalPrice:          finiteOrNil(summary.FinalPrice),
		FinalIndicator:      finiteOrNil(summary.FinalIndicator),
		MinIndicator:        finiteOrNil(summary.MinIndicator),
		MaxIndicator:        finiteOrNil(summary.MaxIndicator),
		NonFiniteIndicators: summary.NonFiniteIndicators,
		ExactPrice:          summary.ExactPrice,
		PriceDrift:          finiteOrNil(summary.PriceDrift),
	}
}

// Server serves a run and a surface. Both are read-only once the server starts.
type Server struct {
	log      *logger.Logger
	result   *runner.Result
	grid     *surface.Grid
	interval time.Duration
	upgrader websocket.Upgrader

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a server for cfg. A nil logger discards output.
func NewServer(cfg Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	interval := cfg.StreamInterval
	if interval <= 0 {
		interval = DefaultStreamInterval
	}

	return &Server{
		log:      log,
		result:   cfg.Result,
		grid:     cfg.Grid,
		interval: interval,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		mu:         sync.Mutex{},
		httpServer: nil,
		listener:   nil,
	}
}

// Handler returns the router with every route registered.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", s.handleIndex).Methods("GET")
	router.HandleFunc("/tracker", s.handleTracker).Methods("GET")
	router.HandleFunc("/surface", s.handleSurface).Methods("GET")
	router.HandleFunc("/api/steps", s.handleSteps).Methods("GET")
	router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")
	router.HandleFunc("/ws/steps", s.handleStepStream)

	return router
}

// Start listens on address and serves in the background.
// An empty address or ":0" picks a free port.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(errors.ErrCodeServerFailed, "failed to create listener", err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	go func() {
		if err := httpServer.Serve(listener); err != http.ErrServerClosed {
			s.log.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.log.Info("Serving charts", zap.String("url", s.BaseURL()))

	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// Serve starts the server and blocks until ctx is done.
func (s *Server) Serve(ctx context.Context, address string) error {
	if err := s.Start(address); err != nil {
		return err
	}

	<-ctx.Done()

	return s.Stop()
}

// Address returns the address the server is listening on.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// BaseURL returns the base URL for the server.
func (s *Server) BaseURL() string {
	return "http://" + s.Address()
}

// WebSocketURL returns the WebSocket URL for the server.
func (s *Server) WebSocketURL() string {
	return "ws://" + s.Address()
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.writeHTML(w, func(buf *bytes.Buffer) error {
		return chart.RenderPage(buf, s.result, s.grid)
	})
}

func (s *Server) handleTracker(w http.ResponseWriter, _ *http.Request) {
	if s.result == nil {
		http.Error(w, "no run to show", http.StatusNotFound)

		return
	}

	s.writeHTML(w, func(buf *bytes.Buffer) error {
		return chart.RenderTracker(buf, s.result)
	})
}

func (s *Server) handleSurface(w http.ResponseWriter, _ *http.Request) {
	if s.grid == nil {
		http.Error(w, "no surface to show", http.StatusNotFound)

		return
	}

	s.writeHTML(w, func(buf *bytes.Buffer) error {
		return chart.RenderSurface(buf, s.grid)
	})
}

func (s *Server) handleSteps(w http.ResponseWriter, _ *http.Request) {
	if s.result == nil {
		http.Error(w, "no run to show", http.StatusNotFound)

		return
	}

	samples := s.result.Samples()
	steps := make([]StepMessage, 0, len(samples))

	for _, sample := range samples {
		steps = append(steps, NewStepMessage(sample))
	}

	s.writeJSON(w, steps)
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	if s.result == nil {
		http.Error(w, "no run to show", http.StatusNotFound)

		return
	}

	s.writeJSON(w, NewSummaryMessage(s.result.Summary))
}

// handleStepStream replays the run one step per interval, then closes.
func (s *Server) handleStepStream(w http.ResponseWriter, r *http.Request) {
	if s.result == nil {
		http.Error(w, "no run to show", http.StatusNotFound)

		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("WebSocket upgrade failed", zap.Error(err))

		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for i, sample := range s.result.Samples() {
		if i > 0 {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
			}
		}

		if err := conn.WriteJSON(NewStepMessage(sample)); err != nil {
			s.log.Debug("Step stream closed by client", zap.Int("step", sample.Step), zap.Error(err))

			return
		}
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run complete"),
		time.Now().Add(time.Second),
	)
}

// writeJSON encodes v before writing so a failed encode becomes a 500, not an empty 200.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	var buf bytes.Buffer

	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.log.Error("Failed to encode response", zap.Error(err))
		http.Error(w, "failed to encode response", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(buf.Bytes())
}

func (s *Server) writeHTML(w http.ResponseWriter, render func(buf *bytes.Buffer) error) {
	var buf bytes.Buffer

	if err := render(&buf); err != nil {
		s.log.Error("Failed to render chart", zap.Error(err))
		http.Error(w, "failed to render chart", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func finiteOrNil(v float64) *float64 {
	if !tracker.IsFinite(v) {
		return nil
	}

	return &v
}
