package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"latency-dashboard/internal/models"
)

var exportHeader = []string{"IP", "Average Latency (ms)", "Min Latency (ms)", "Max Latency (ms)", "Packet Loss (%)"}

func statisticsRow(target string, st models.TargetStatistics) []string {
	return []string{
		target,
		fmt.Sprintf("%.2f", st.Avg),
		fmt.Sprintf("%.2f", st.Min),
		fmt.Sprintf("%.2f", st.Max),
		fmt.Sprintf("%.1f", st.PacketLoss),
	}
}

// exportFormat reads the {format} path value, answering 400 when it is unknown
func exportFormat(w http.ResponseWriter, r *http.Request) (string, bool) {
	format := strings.ToLower(r.PathValue("format"))
	if format != "csv" && format != "json" {
		writeError(w, http.StatusBadRequest, "Invalid format")
		return "", false
	}
	return format, true
}

func attachment(w http.ResponseWriter, name, format string) {
	contentType := "text/csv"
	if format == "json" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", name, format))
}

func exportStamp(now time.Time) string {
	return now.Format("20060102_150405")
}

// handleExportCurrent downloads the latest results
func (s *Server) handleExportCurrent(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormat(w, r)
	if !ok {
		return
	}

	latest, err := s.Store.GetLatest(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	attachment(w, "latency_data_"+exportStamp(time.Now()), format)
	if format == "json" {
		json.NewEncoder(w).Encode(latest)
		return
	}

	cw := csv.NewWriter(w)
	cw.Write(exportHeader)
	latest.Each(func(target string, st models.TargetStatistics) {
		cw.Write(statisticsRow(target, st))
	})
	cw.Flush()
}

// handleExportHistory downloads every history record, one CSV row per target
func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	format, ok := exportFormat(w, r)
	if !ok {
		return
	}

	records, err := s.Store.GetHistory(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	attachment(w, "latency_history_"+exportStamp(time.Now()), format)
	if format == "json" {
		json.NewEncoder(w).Encode(records)
		return
	}

	cw := csv.NewWriter(w)
	cw.Write(append([]string{"Timestamp"}, exportHeader...))
	for _, record := range records {
		record.Data.Each(func(target string, st models.TargetStatistics) {
			cw.Write(append([]string{record.Timestamp}, statisticsRow(target, st)...))
		})
	}
	cw.Flush()
}
