package geo

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"latency-dashboard/internal/models"
)

// ErrNoData is returned when there are no results to map
var ErrNoData = errors.New("geo: no latency data")

// MapFile is the name of the generated page inside the output directory
const MapFile = "latency_map.html"

// Marker is one plotted target
type Marker struct {
	IP         string  `json:"ip"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AvgMs      float64 `json:"avg_ms"`
	MinMs      float64 `json:"min_ms"`
	MaxMs      float64 `json:"max_ms"`
	PacketLoss float64 `json:"packet_loss"`
	Color      string  `json:"color"`
}

// Popup is the HTML shown when the marker is clicked
func (m Marker) Popup() string {
	return fmt.Sprintf("<b>%s</b><br>IP: %s<br>Avg Latency: %.2f ms<br>Min: %.2f ms<br>Max: %.2f ms<br>Packet Loss: %.1f%%",
		html.EscapeString(m.Name), html.EscapeString(m.IP), m.AvgMs, m.MinMs, m.MaxMs, m.PacketLoss)
}

// MarkerColor grades an average latency for display
func MarkerColor(avgMs float64) string {
	switch {
	case avgMs < 50:
		return "green"
	case avgMs < 100:
		return "orange"
	default:
		return "red"
	}
}

// Markers places every locatable target of rs, in result order
func (l *Locator) Markers(rs *models.ResultSet) []Marker {
	markers := make([]Marker, 0, rs.Len())
	rs.Each(func(target string, s models.TargetStatistics) {
		loc, ok := l.Locate(target)
		if !ok {
			l.logger.Debug("no location for target", zap.String("target", target))
			return
		}
		markers = append(markers, Marker{
			IP:         target,
			Name:       loc.Name,
			Lat:        loc.Lat,
			Lon:        loc.Lon,
			AvgMs:      s.Avg,
			MinMs:      s.Min,
			MaxMs:      s.Max,
			PacketLoss: s.PacketLoss,
			Color:      MarkerColor(s.Avg),
		})
	})
	return markers
}

// Generate writes the map page for rs into outputDir and returns its path
func (l *Locator) Generate(rs *models.ResultSet, outputDir string) (string, error) {
	if rs.Len() == 0 {
		return "", ErrNoData
	}

	markers := l.Markers(rs)
	var buf bytes.Buffer
	if err := mapTemplate.Execute(&buf, struct{ Markers []Marker }{markers}); err != nil {
		return "", fmt.Errorf("render map: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create map directory: %w", err)
	}
	path := filepath.Join(outputDir, MapFile)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write map: %w", err)
	}

	l.logger.Info("map generated", zap.String("path", path), zap.Int("markers", len(markers)))
	return path, nil
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Latency Map</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([20, 0], 2);
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var heat = [];
{{range .Markers}}
L.circleMarker([{{.Lat}}, {{.Lon}}], {radius: 9, color: {{.Color}}, fillColor: {{.Color}}, fillOpacity: 0.8})
  .bindPopup({{.Popup}}, {maxWidth: 250})
  .bindTooltip({{printf "%s - %.2f ms" .IP .AvgMs}})
  .addTo(map);
heat.push([{{.Lat}}, {{.Lon}}, {{.AvgMs}} / 10]);
{{end}}
if (heat.length > 0) {
  L.heatLayer(heat, {radius: 25, blur: 35, maxZoom: 13}).addTo(map);
}
</script>
</body>
</html>
`))
