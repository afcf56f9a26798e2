package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"latency-dashboard/internal/models"
)

func probes(rtts ...float64) []models.PingResult {
	out := make([]models.PingResult, 0, len(rtts))
	for _, rtt := range rtts {
		if rtt < 0 {
			out = append(out, models.PingResult{})
			continue
		}
		out = append(out, models.PingResult{Success: true, RTT: rtt})
	}
	return out
}

func TestComputeStatistics(t *testing.T) {
	s := computeStatistics(probes(10, 12, 11, 13), "ICMP")

	assert.InDelta(t, 11.5, s.Avg, 1e-9)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 13.0, s.Max)
	assert.Equal(t, 0.0, s.PacketLoss)
	assert.InDelta(t, 5.0/3.0, s.Jitter, 1e-9)
	assert.InDelta(t, 1.29099, s.StdDev, 1e-5)
	assert.InDelta(t, 45.5903, s.ThroughputEstimate, 1e-3)
	assert.Equal(t, "ICMP", s.Protocol)
	assert.Len(t, s.Latencies, 4)
}

func TestComputeStatisticsPartialLoss(t *testing.T) {
	s := computeStatistics(probes(20, -1, 30, -1), "TCP")

	assert.Equal(t, 50.0, s.PacketLoss)
	assert.Equal(t, 25.0, s.Avg)
	assert.Equal(t, 10.0, s.Jitter)
	assert.Nil(t, s.Latencies[1])
	assert.Equal(t, 30.0, *s.Latencies[2])
}

func TestComputeStatisticsAllLost(t *testing.T) {
	s := computeStatistics(probes(-1, -1), "ICMP")

	assert.Equal(t, 100.0, s.PacketLoss)
	assert.Zero(t, s.Avg)
	assert.Zero(t, s.Min)
	assert.Zero(t, s.Max)
	assert.Zero(t, s.Jitter)
	assert.Zero(t, s.StdDev)
	assert.Zero(t, s.ThroughputEstimate)
	assert.True(t, s.Failed())
}

func TestComputeStatisticsSingleSample(t *testing.T) {
	s := computeStatistics(probes(42), "ICMP")
	assert.Zero(t, s.Jitter)
	assert.Zero(t, s.StdDev)
	assert.Equal(t, 42.0, s.Avg)
}
