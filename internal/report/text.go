package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"latency-dashboard/internal/history"
	"latency-dashboard/internal/quality"
)

// writeTextReport prints the latest classified results and the history rollup
func writeTextReport(w io.Writer, rows []quality.Row, summaries []history.Summary, excluded int, generated time.Time) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Network Latency Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(&b, strings.Repeat("=", 60))

	fmt.Fprintln(&b, "\nLATEST MEASUREMENT")
	if len(rows) == 0 {
		fmt.Fprintln(&b, "No measurement results available.")
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "Target: %s (%s)\n", row.Target, row.Protocol)
		fmt.Fprintf(&b, "  Quality: %s, jitter %s\n", row.Tier, row.JitterTier)
		fmt.Fprintf(&b, "  Average RTT: %.2f ms\n", row.Avg)
		fmt.Fprintf(&b, "  Min RTT: %.2f ms\n", row.Min)
		fmt.Fprintf(&b, "  Max RTT: %.2f ms\n", row.Max)
		fmt.Fprintf(&b, "  Jitter: %.2f ms\n", row.Jitter)
		fmt.Fprintf(&b, "  Std Dev: %.2f ms\n", row.StdDev)
		fmt.Fprintf(&b, "  Packet Loss: %.1f%%\n", row.PacketLoss)
		fmt.Fprintf(&b, "  Estimated Bandwidth: %.2f Mbps\n", row.ThroughputEstimate)
		fmt.Fprintln(&b)
	}

	fmt.Fprintln(&b, strings.Repeat("=", 60))
	fmt.Fprintln(&b, "\nMEASUREMENT HISTORY")
	if len(summaries) == 0 {
		fmt.Fprintln(&b, "No history recorded.")
	}
	for _, s := range summaries {
		fmt.Fprintf(&b, "#%d %s  avg %.2f ms  loss %.1f%%  [%s]\n",
			s.Index, s.Timestamp, s.OverallAvgMs, s.OverallLossPercent, s.TargetIDsJoined)
	}
	if excluded > 0 {
		fmt.Fprintf(&b, "\n%d record(s) without targets were excluded.\n", excluded)
	}

	fmt.Fprintln(&b, strings.Repeat("=", 60))
	fmt.Fprintln(&b, "\nCharts are available in the accompanying files.")

	_, err := io.WriteString(w, b.String())
	return err
}
