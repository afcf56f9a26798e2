package ping

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"latency-dashboard/internal/models"
)

// DefaultTCPPorts are tried in order until one accepts a connection
var DefaultTCPPorts = []int{80, 443}

// TCPPinger measures connect time to the first open port
type TCPPinger struct {
	ports []int
}

// NewTCP creates a TCP pinger. An empty port list falls back to DefaultTCPPorts.
func NewTCP(ports []int) *TCPPinger {
	if len(ports) == 0 {
		ports = DefaultTCPPorts
	}
	return &TCPPinger{ports: append([]int(nil), ports...)}
}

func (p *TCPPinger) Protocol() string { return "TCP" }

// Ping dials each port in turn with the full timeout
func (p *TCPPinger) Ping(ctx context.Context, target string, timeout time.Duration) (models.PingResult, error) {
	result := models.PingResult{
		Timestamp: time.Now(),
		Target:    target,
		Protocol:  p.Protocol(),
	}

	dialer := net.Dialer{Timeout: timeout}
	var errs []error
	for _, port := range p.ports {
		start := time.Now()
		conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(target, strconv.Itoa(port)))
		if ctxErr := ctx.Err(); ctxErr != nil {
			if conn != nil {
				conn.Close()
			}
			result.ErrorMessage = ctxErr.Error()
			return result, ctxErr
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("port %d: %w", port, err))
			continue
		}
		elapsed := time.Since(start)
		conn.Close()

		result.Success = true
		result.RTT = float64(elapsed.Microseconds()) / 1000
		return result, nil
	}

	result.ErrorMessage = errors.Join(errs...).Error()
	return result, nil
}
