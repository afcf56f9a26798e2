// Package web serves the dashboard HTTP API and the websocket push channel
// that hosts measurement sessions.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"latency-dashboard/internal/database"
	"latency-dashboard/internal/geo"
	"latency-dashboard/internal/metrics"
	"latency-dashboard/internal/models"
	"latency-dashboard/internal/report"
	"latency-dashboard/internal/session"
)

// Store is the persistence the API reads and clears
type Store interface {
	GetHistory(ctx context.Context) ([]models.HistoricalRecord, error)
	ClearHistory(ctx context.Context) error
	GetLatest(ctx context.Context) (*models.ResultSet, error)
	ClearLatest(ctx context.Context) error
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, s models.Settings) error
	GetTargetSummaries(ctx context.Context) ([]database.TargetSummary, error)
}

// Options configure the HTTP server
type Options struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MapDir       string // generated map pages, served under /generated/
	ReportDir    string // parent directory of generated reports
}

// Deps are the collaborators the server wires into its handlers
type Deps struct {
	Store   Store
	Engine  session.Engine
	Pinger  models.Pinger
	Reports *report.Generator
	Locator *geo.Locator
	Metrics *metrics.Collector // nil disables /metrics
	Logger  *zap.Logger
	Static  fs.FS // rooted at the page directory
}

// Server handles web requests
type Server struct {
	Deps
	opts       Options
	httpServer *http.Server
}

// New creates a new web server
func New(deps Deps, opts Options) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Server{Deps: deps, opts: opts}
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/summary", s.handleHistorySummary)
	mux.HandleFunc("GET /api/history/targets", s.handleHistoryTargets)
	mux.HandleFunc("GET /api/history/{index}", s.handleHistoryDetail)
	mux.HandleFunc("GET /api/current", s.handleCurrent)
	mux.HandleFunc("GET /api/current/quality", s.handleCurrentQuality)
	mux.HandleFunc("GET /api/current/chart", s.handleCurrentChart)
	mux.HandleFunc("POST /api/clear_data", s.handleClearData)
	mux.HandleFunc("POST /api/clear_history", s.handleClearHistory)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("POST /api/settings", s.handleSaveSettings)
	mux.HandleFunc("GET /api/export/{format}", s.handleExportCurrent)
	mux.HandleFunc("GET /api/export_history/{format}", s.handleExportHistory)
	mux.HandleFunc("GET /api/bandwidth", s.handleBandwidth)
	mux.HandleFunc("GET /api/network_info/{ip}", s.handleNetworkInfo)
	mux.HandleFunc("GET /api/generate_map", s.handleGenerateMap)
	mux.HandleFunc("GET /api/chart.png", s.handleChartPNG)
	mux.HandleFunc("POST /api/report", s.handleReport)
	mux.HandleFunc("GET /ws", s.handleWS)

	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}
	if s.opts.MapDir != "" {
		mux.Handle("GET /generated/", http.StripPrefix("/generated/", http.FileServer(http.Dir(s.opts.MapDir))))
	}
	if s.Static != nil {
		mux.Handle("GET /", http.FileServer(http.FS(s.Static)))
	}

	return requestLogger(s.Logger, mux)
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.opts.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	s.Logger.Info("web server starting", zap.Int("port", s.opts.Port))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
