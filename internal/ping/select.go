package ping

import (
	"fmt"

	"go.uber.org/zap"

	"latency-dashboard/internal/models"
)

// Probe modes
const (
	ModeAuto = "auto"
	ModeICMP = "icmp"
	ModeTCP  = "tcp"
)

// New returns the pinger for mode. Auto prefers ICMP when a ping binary exists.
func New(mode string, tcpPorts []int, logger *zap.Logger) (models.Pinger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch mode {
	case ModeICMP:
		return NewICMP(), nil
	case ModeTCP:
		return NewTCP(tcpPorts), nil
	case ModeAuto, "":
		if Available() {
			logger.Info("using ICMP probes")
			return NewICMP(), nil
		}
		logger.Warn("ping binary not found, falling back to TCP probes", zap.Ints("ports", tcpPorts))
		return NewTCP(tcpPorts), nil
	default:
		return nil, fmt.Errorf("unknown probe mode %q", mode)
	}
}
