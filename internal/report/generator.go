// Package report renders measurement results and history to PNG charts and a
// plain text summary.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"latency-dashboard/internal/history"
	"latency-dashboard/internal/models"
	"latency-dashboard/internal/quality"
	"latency-dashboard/internal/series"
)

// Source provides the data a report is built from
type Source interface {
	GetLatest(ctx context.Context) (*models.ResultSet, error)
	GetHistory(ctx context.Context) ([]models.HistoricalRecord, error)
}

// Generator creates static images and reports
type Generator struct {
	source Source
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator creates a new report generator
func NewGenerator(source Source, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{source: source, logger: logger, now: time.Now}
}

// GenerateReport writes a network_report_<timestamp> directory under outputDir
// and returns its path. Charts without data are skipped.
func (g *Generator) GenerateReport(ctx context.Context, outputDir string) (string, error) {
	latest, err := g.source.GetLatest(ctx)
	if err != nil {
		return "", fmt.Errorf("load latest results: %w", err)
	}
	records, err := g.source.GetHistory(ctx)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	generated := g.now()
	reportDir := filepath.Join(outputDir, fmt.Sprintf("network_report_%s", generated.Format("2006-01-02_15-04-05")))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	rows := quality.Rows(latest)
	summaries, rollupErr := history.Rollup(records)
	excluded := len(history.Excluded(rollupErr))
	if rollupErr != nil {
		g.logger.Warn("history records excluded from report", zap.Int("excluded", excluded), zap.Error(rollupErr))
	}

	model := series.Build(latest)

	type chartFile struct {
		name   string
		render func(io.Writer) error
	}
	charts := []chartFile{
		{"latency.png", func(w io.Writer) error {
			return RenderLatencyChart(w, model, DefaultWidth, DefaultHeight)
		}},
		{"history_trend.png", func(w io.Writer) error {
			return RenderHistoryTrend(w, records, DefaultWidth, DefaultHeight)
		}},
		{"quality_tiers.png", func(w io.Writer) error {
			return RenderTierDistribution(w, rows, DefaultWidth, DefaultHeight)
		}},
	}
	for _, s := range model.Series {
		single := series.ChartModel{XAxisLabels: model.XAxisLabels, Series: []series.Series{s}}
		charts = append(charts, chartFile{
			name: fmt.Sprintf("latency_%s.png", sanitizeFilename(s.TargetID)),
			render: func(w io.Writer) error {
				return RenderLatencyChart(w, single, DefaultWidth, DefaultHeight)
			},
		})
	}

	for _, c := range charts {
		if err := writeFile(filepath.Join(reportDir, c.name), c.render); err != nil {
			if errors.Is(err, ErrNoData) {
				g.logger.Debug("chart skipped, no data", zap.String("chart", c.name))
				continue
			}
			g.logger.Error("failed to generate chart", zap.String("chart", c.name), zap.Error(err))
		}
	}

	if err := writeFile(filepath.Join(reportDir, "summary.txt"), func(w io.Writer) error {
		return writeTextReport(w, rows, summaries, excluded, generated)
	}); err != nil {
		return reportDir, fmt.Errorf("write summary: %w", err)
	}

	g.logger.Info("report generated", zap.String("dir", reportDir))
	return reportDir, nil
}
