// Package ping provides the probe transports used by the measurement engine.
package ping

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"latency-dashboard/internal/models"
)

// ICMPPinger probes through the system ping binary
type ICMPPinger struct {
	binary string
}

// NewICMP creates an ICMP pinger that runs the ping binary from PATH
func NewICMP() *ICMPPinger {
	return &ICMPPinger{binary: "ping"}
}

func (p *ICMPPinger) Protocol() string { return "ICMP" }

// Ping sends one echo request. A lost packet is reported through the result,
// the error is only set when ctx ended.
func (p *ICMPPinger) Ping(ctx context.Context, target string, timeout time.Duration) (models.PingResult, error) {
	result := models.PingResult{
		Timestamp: time.Now(),
		Target:    target,
		Protocol:  p.Protocol(),
	}

	cmd := exec.CommandContext(ctx, p.binary, pingArgs(runtime.GOOS, target, timeout)...)
	start := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ErrorMessage = ctxErr.Error()
		return result, ctxErr
	}

	if err != nil {
		result.ErrorMessage = err.Error()
		return result, nil
	}

	result.Success = true
	result.RTT = parsePingOutput(string(output))
	if result.RTT == 0 {
		// unrecognized output, e.g. localized replies; fall back to wall clock time
		result.RTT = float64(elapsed.Microseconds()) / 1000
	}
	return result, nil
}

func pingArgs(goos, target string, timeout time.Duration) []string {
	if goos == "windows" {
		return []string{"-n", "1", "-w", strconv.Itoa(int(timeout.Milliseconds())), target}
	}
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	return []string{"-c", "1", "-W", strconv.Itoa(secs), target}
}

// Linux/Mac: "time=XX.X ms", Windows: "time=XXms" or "time<1ms",
// summary lines from busybox, BSD and iputils.
var rttPatterns = []*regexp.Regexp{
	regexp.MustCompile(`time[=<]([0-9.]+)\s*ms`),
	regexp.MustCompile(`round-trip min/avg/max(?:/stddev)? = [0-9.]+/([0-9.]+)/`),
	regexp.MustCompile(`rtt min/avg/max/mdev = [0-9.]+/([0-9.]+)/`),
}

// parsePingOutput parses RTT from ping output
func parsePingOutput(output string) float64 {
	for _, re := range rttPatterns {
		matches := re.FindStringSubmatch(output)
		if len(matches) > 1 {
			if rtt, err := strconv.ParseFloat(matches[1], 64); err == nil {
				return rtt
			}
		}
	}
	return 0
}

// Available reports whether the ping binary is on PATH
func Available() bool {
	_, err := exec.LookPath("ping")
	return err == nil
}
