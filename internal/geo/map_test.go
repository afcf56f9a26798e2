package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"latency-dashboard/internal/models"
)

func TestMarkerColor(t *testing.T) {
	tests := []struct {
		avg  float64
		want string
	}{
		{0, "green"},
		{49.9, "green"},
		{50, "orange"},
		{99.9, "orange"},
		{100, "red"},
		{350, "red"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MarkerColor(tt.avg), "avg %v", tt.avg)
	}
}

func TestLocateKnownResolvers(t *testing.T) {
	l := NewLocator("", zaptest.NewLogger(t))
	defer l.Close()

	loc, ok := l.Locate("1.1.1.1")
	require.True(t, ok)
	assert.Equal(t, "San Francisco, CA, USA", loc.Name)

	_, ok = l.Locate("192.0.2.10")
	assert.False(t, ok)
}

func TestLocatorMissingDatabase(t *testing.T) {
	l := NewLocator(filepath.Join(t.TempDir(), "missing.mmdb"), zaptest.NewLogger(t))
	defer l.Close()

	_, ok := l.Locate("192.0.2.10")
	assert.False(t, ok)
	_, ok = l.Locate("8.8.8.8")
	assert.True(t, ok)
}

func TestMarkersSkipUnknown(t *testing.T) {
	rs := models.NewResultSet()
	rs.Set("8.8.8.8", models.TargetStatistics{Avg: 12, Min: 10, Max: 14})
	rs.Set("192.0.2.10", models.TargetStatistics{Avg: 5})
	rs.Set("1.1.1.1", models.TargetStatistics{Avg: 120, PacketLoss: 25})

	markers := NewLocator("", nil).Markers(rs)
	require.Len(t, markers, 2)
	assert.Equal(t, "8.8.8.8", markers[0].IP)
	assert.Equal(t, "green", markers[0].Color)
	assert.Equal(t, "1.1.1.1", markers[1].IP)
	assert.Equal(t, "red", markers[1].Color)
	assert.Contains(t, markers[1].Popup(), "Packet Loss: 25.0%")
}

func TestPopupEscapesName(t *testing.T) {
	m := Marker{IP: "<script>", Name: "a&b"}
	assert.Contains(t, m.Popup(), "&lt;script&gt;")
	assert.Contains(t, m.Popup(), "a&amp;b")
}

func TestGenerate(t *testing.T) {
	l := NewLocator("", zaptest.NewLogger(t))
	dir := filepath.Join(t.TempDir(), "static")

	_, err := l.Generate(models.NewResultSet(), dir)
	assert.ErrorIs(t, err, ErrNoData)

	rs := models.NewResultSet()
	rs.Set("8.8.8.8", models.TargetStatistics{Avg: 75})
	path, err := l.Generate(rs, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, MapFile), path)

	page, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, "L.circleMarker(")
	assert.Contains(t, html, "37.4056")
	assert.Contains(t, html, "-122.0775")
	assert.Contains(t, html, `"orange"`)
	assert.Contains(t, html, "L.heatLayer")
}
