package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"latency-dashboard/internal/geo"
	"latency-dashboard/internal/history"
	"latency-dashboard/internal/logger"
	"latency-dashboard/internal/quality"
	"latency-dashboard/internal/report"
	"latency-dashboard/internal/series"
)

// noDataMessage is shown when an endpoint needs a finished measurement
const noDataMessage = "No latency data available. Please run a measurement first."

type excludedRecord struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Reason    string `json:"reason"`
}

type historySummary struct {
	Summaries []history.Summary `json:"summaries"`
	Excluded  []excludedRecord  `json:"excluded"`
}

// summarizeHistory rolls the stored history up, logging records it had to leave out
func (s *Server) summarizeHistory(ctx context.Context) (historySummary, error) {
	records, err := s.Store.GetHistory(ctx)
	if err != nil {
		return historySummary{}, err
	}

	summaries, rollupErr := history.Rollup(records)
	out := historySummary{Summaries: summaries, Excluded: []excludedRecord{}}
	log := logger.FromContext(ctx, s.Logger)
	for _, e := range history.Excluded(rollupErr) {
		log.Warn("history record excluded", zap.Int("index", e.Index), zap.String("timestamp", e.Timestamp))
		out.Excluded = append(out.Excluded, excludedRecord{Index: e.Index, Timestamp: e.Timestamp, Reason: e.Error()})
	}
	return out, nil
}

// handleHistory handles /api/history requests
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.Store.GetHistory(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHistorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.summarizeHistory(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHistoryTargets(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.Store.GetTargetSummaries(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// handleHistoryDetail returns one history record for drill-down
func (s *Server) handleHistoryDetail(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "index must be an integer", http.StatusBadRequest)
		return
	}

	records, err := s.Store.GetHistory(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	record, err := history.Detail(records, index)
	if errors.Is(err, history.ErrIndexOutOfRange) {
		writeError(w, http.StatusNotFound, "History record not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	latest, err := s.Store.GetLatest(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// handleCurrentQuality returns the classified rows of the latest results
func (s *Server) handleCurrentQuality(w http.ResponseWriter, r *http.Request) {
	latest, err := s.Store.GetLatest(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, quality.Rows(latest))
}

func (s *Server) handleCurrentChart(w http.ResponseWriter, r *http.Request) {
	latest, err := s.Store.GetLatest(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, series.Build(latest))
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.ClearLatest(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, "Data cleared")
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.ClearHistory(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, "History cleared")
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.Store.GetSettings(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.Store.GetSettings(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// fields left out of the body keep their current value
	update := current
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings: "+err.Error())
		return
	}
	if update.DefaultPings <= 0 || update.PingTimeout <= 0 {
		writeError(w, http.StatusBadRequest, "default_pings and ping_timeout must be positive")
		return
	}
	if update.StoragePath == "" {
		update.StoragePath = current.StoragePath
	}

	if err := s.Store.SaveSettings(r.Context(), update); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, "Settings saved successfully")
}

type bandwidthResult struct {
	EstimatedBandwidthMbps float64 `json:"estimated_bandwidth_mbps"`
	AvgLatencyMs           float64 `json:"avg_latency_ms"`
	JitterMs               float64 `json:"jitter_ms"`
}

// handleBandwidth estimates bandwidth from the latest latency measurements
func (s *Server) handleBandwidth(w http.ResponseWriter, r *http.Request) {
	latest, err := s.Store.GetLatest(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if latest.Len() == 0 {
		writeError(w, http.StatusNotFound, "No latency data available")
		return
	}

	results := make(map[string]bandwidthResult, latest.Len())
	for _, row := range quality.Rows(latest) {
		results[row.Target] = bandwidthResult{
			EstimatedBandwidthMbps: row.ThroughputEstimate,
			AvgLatencyMs:           row.Avg,
			JitterMs:               row.Jitter,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"results": results,
	})
}

type networkInfo struct {
	IP         string   `json:"ip"`
	ReverseDNS []string `json:"reverse_dns"`
	Reachable  bool     `json:"is_reachable"`
	RTTMs      float64  `json:"rtt_ms"`
	Protocol   string   `json:"protocol,omitempty"`
}

// handleNetworkInfo resolves and probes a single address
func (s *Server) handleNetworkInfo(w http.ResponseWriter, r *http.Request) {
	ip := r.PathValue("ip")
	if net.ParseIP(ip) == nil {
		writeError(w, http.StatusBadRequest, "Invalid IP address")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	info := networkInfo{IP: ip, ReverseDNS: []string{}}
	if names, err := net.DefaultResolver.LookupAddr(ctx, ip); err == nil {
		info.ReverseDNS = names
	}
	if s.Pinger != nil {
		result, err := s.Pinger.Ping(ctx, ip, 2*time.Second)
		if err != nil {
			writeError(w, http.StatusGatewayTimeout, "Failed to get network info: "+err.Error())
			return
		}
		info.Reachable = result.Success
		info.RTTMs = result.RTT
		info.Protocol = s.Pinger.Protocol()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"info":   info,
	})
}

func (s *Server) handleGenerateMap(w http.ResponseWriter, r *http.Request) {
	if s.Locator == nil || s.opts.MapDir == "" {
		writeError(w, http.StatusNotImplemented, "Map generation is not configured")
		return
	}

	latest, err := s.Store.GetLatest(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if _, err := s.Locator.Generate(latest, s.opts.MapDir); err != nil {
		if errors.Is(err, geo.ErrNoData) {
			writeError(w, http.StatusNotFound, noDataMessage)
			return
		}
		writeError(w, http.StatusInternalServerError, "Error generating map: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Map generated successfully",
		"map_url": "/generated/" + geo.MapFile,
	})
}

// handleChartPNG renders the latest results as a PNG line chart
func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	width := queryInt(r, "width", report.DefaultWidth)
	height := queryInt(r, "height", report.DefaultHeight)

	latest, err := s.Store.GetLatest(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := report.RenderLatencyChart(&buf, series.Build(latest), width, height); err != nil {
		if errors.Is(err, report.ErrNoData) {
			writeError(w, http.StatusNotFound, noDataMessage)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.Reports == nil {
		writeError(w, http.StatusNotImplemented, "Report generation is not configured")
		return
	}

	dir, err := s.Reports.GenerateReport(r.Context(), s.opts.ReportDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error generating report: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "success",
		"message":    "Report generated",
		"report_dir": dir,
	})
}

// queryInt reads a bounded positive integer query parameter
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 || v > 4096 {
		return def
	}
	return v
}
