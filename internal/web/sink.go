package web

import (
	"context"

	"go.uber.org/zap"

	"latency-dashboard/internal/quality"
	"latency-dashboard/internal/series"
	"latency-dashboard/internal/session"
)

type progressPayload struct {
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
}

type alertPayload struct {
	Message  string           `json:"message"`
	Severity session.Severity `json:"severity"`
}

// wsSink renders session output as websocket messages
type wsSink struct {
	server *Server
	conn   *wsConn
	ctx    context.Context
}

func (k *wsSink) ShowProgress(status string, percent float64) {
	k.conn.send("progress", progressPayload{Status: status, Progress: percent})
}

func (k *wsSink) HideProgress() {
	k.conn.send("progress_hidden", nil)
}

func (k *wsSink) SetStartEnabled(enabled bool) {
	k.conn.send("start_control", map[string]bool{"enabled": enabled})
}

func (k *wsSink) RenderResults(rows []quality.Row) {
	k.conn.send("results", map[string]interface{}{"rows": rows})
}

func (k *wsSink) RenderChart(model series.ChartModel) {
	k.conn.send("chart", model)
}

func (k *wsSink) RefreshHistory() {
	summary, err := k.server.summarizeHistory(k.ctx)
	if err != nil {
		k.conn.logger.Error("history refresh failed", zap.Error(err))
		k.ShowAlert("Could not load history", session.SeverityDanger)
		return
	}
	k.conn.send("history", summary)
}

func (k *wsSink) ShowAlert(message string, severity session.Severity) {
	k.conn.send("alert", alertPayload{Message: message, Severity: severity})
}
