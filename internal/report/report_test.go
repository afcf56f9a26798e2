package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"latency-dashboard/internal/models"
	"latency-dashboard/internal/quality"
	"latency-dashboard/internal/series"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

type staticSource struct {
	latest  *models.ResultSet
	history []models.HistoricalRecord
}

func (s staticSource) GetLatest(context.Context) (*models.ResultSet, error) {
	return s.latest, nil
}

func (s staticSource) GetHistory(context.Context) ([]models.HistoricalRecord, error) {
	return s.history, nil
}

func f(v float64) *float64 { return &v }

func latestResults() *models.ResultSet {
	rs := models.NewResultSet()
	rs.Set("8.8.8.8", models.TargetStatistics{
		Latencies: []*float64{f(10), f(12), f(11), f(13)},
		Avg:       11.5, Min: 10, Max: 13,
	})
	rs.Set("1.1.1.1", models.TargetStatistics{
		Latencies:  []*float64{nil, nil, nil, nil},
		PacketLoss: 100,
	})
	return rs
}

func TestRenderLatencyChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderLatencyChart(&buf, series.Build(latestResults()), 800, 300))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderLatencyChartSingleProbe(t *testing.T) {
	rs := models.NewResultSet()
	rs.Set("8.8.8.8", models.TargetStatistics{Latencies: []*float64{f(20)}, Avg: 20, Min: 20, Max: 20})

	var buf bytes.Buffer
	require.NoError(t, RenderLatencyChart(&buf, series.Build(rs), 800, 300))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderLatencyChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := RenderLatencyChart(&buf, series.Build(models.NewResultSet()), 800, 300)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestRenderHistoryTrendNeedsTwoTimestamps(t *testing.T) {
	records := []models.HistoricalRecord{{Timestamp: "2024-01-01 10:00:00", Data: latestResults()}}
	assert.ErrorIs(t, RenderHistoryTrend(&bytes.Buffer{}, records, 800, 300), ErrNoData)

	records = append(records, models.HistoricalRecord{Timestamp: "2024-01-01 11:00:00", Data: latestResults()})
	var buf bytes.Buffer
	require.NoError(t, RenderHistoryTrend(&buf, records, 800, 300))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderTierDistribution(t *testing.T) {
	assert.ErrorIs(t, RenderTierDistribution(&bytes.Buffer{}, nil, 800, 300), ErrNoData)

	var buf bytes.Buffer
	require.NoError(t, RenderTierDistribution(&buf, quality.Rows(latestResults()), 800, 300))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestGenerateReport(t *testing.T) {
	source := staticSource{
		latest: latestResults(),
		history: []models.HistoricalRecord{
			{Timestamp: "2024-01-01 10:00:00", Data: latestResults()},
			{Timestamp: "2024-01-01 11:00:00", Data: models.NewResultSet()},
			{Timestamp: "2024-01-01 12:00:00", Data: latestResults()},
		},
	}
	g := NewGenerator(source, zaptest.NewLogger(t))
	g.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local) }

	dir, err := g.GenerateReport(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "network_report_2024-01-02_03-04-05", filepath.Base(dir))

	for _, name := range []string{"latency.png", "history_trend.png", "quality_tiers.png", "latency_8_8_8_8.png", "latency_1_1_1_1.png"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, pngMagic), name)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "summary.txt"))
	require.NoError(t, err)
	text := string(summary)
	assert.Contains(t, text, "Target: 8.8.8.8 (ICMP)")
	assert.Contains(t, text, "Quality: Excellent, jitter Low")
	assert.Contains(t, text, "Quality: Failed")
	assert.Contains(t, text, "#0 2024-01-01 10:00:00")
	assert.Contains(t, text, "#2 2024-01-01 12:00:00")
	assert.Contains(t, text, "1 record(s) without targets were excluded.")
}

func TestGenerateReportWithoutData(t *testing.T) {
	g := NewGenerator(staticSource{latest: models.NewResultSet()}, zaptest.NewLogger(t))

	dir, err := g.GenerateReport(context.Background(), t.TempDir())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "summary.txt", entries[0].Name())
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "2001_db8__1", sanitizeFilename("2001:db8::1"))
	assert.Equal(t, "a_b_c", sanitizeFilename("a/b c"))
}
