package monitor

import (
	"math"

	"latency-dashboard/internal/models"
)

// TCPWindowBits is the assumed 64KB window used for the bandwidth estimate
const TCPWindowBits = 65536 * 8

// computeStatistics summarizes one target's probes in probe order
func computeStatistics(results []models.PingResult, protocol string) models.TargetStatistics {
	stats := models.TargetStatistics{
		Latencies: make([]*float64, 0, len(results)),
		Protocol:  protocol,
	}

	valid := make([]float64, 0, len(results))
	for _, r := range results {
		stats.Latencies = append(stats.Latencies, r.Sample())
		if r.Success {
			valid = append(valid, r.RTT)
		}
	}

	if len(results) > 0 {
		stats.PacketLoss = (1 - float64(len(valid))/float64(len(results))) * 100
	} else {
		stats.PacketLoss = 100
	}

	if len(valid) == 0 {
		return stats
	}

	stats.Min, stats.Max = valid[0], valid[0]
	var sum float64
	for _, v := range valid {
		sum += v
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}
	stats.Avg = sum / float64(len(valid))
	stats.Jitter = jitter(valid)
	stats.StdDev = stdDev(valid, stats.Avg)
	stats.ThroughputEstimate = throughputEstimate(stats.Avg)
	return stats
}

// jitter is the mean absolute difference between consecutive samples
func jitter(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(samples); i++ {
		sum += math.Abs(samples[i] - samples[i-1])
	}
	return sum / float64(len(samples)-1)
}

// stdDev is the sample standard deviation
func stdDev(samples []float64, mean float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	var sq float64
	for _, v := range samples {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(samples)-1))
}

// throughputEstimate returns Mbps for a window limited transfer at avgMs RTT
func throughputEstimate(avgMs float64) float64 {
	if avgMs <= 0 {
		return 0
	}
	return TCPWindowBits / (avgMs / 1000) / 1e6
}
