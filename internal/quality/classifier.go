// Package quality turns per-target statistics into discrete quality tiers.
package quality

import "latency-dashboard/internal/models"

// Tier is the overall quality of a target
type Tier string

const (
	Excellent Tier = "Excellent"
	Good      Tier = "Good"
	Unstable  Tier = "Unstable"
	Poor      Tier = "Poor"
	Failed    Tier = "Failed"
)

// Tiers lists every tier from best to worst
var Tiers = []Tier{Excellent, Good, Unstable, Poor, Failed}

// JitterTier grades latency variation independently of Tier
type JitterTier string

const (
	JitterLow    JitterTier = "Low"
	JitterMedium JitterTier = "Medium"
	JitterHigh   JitterTier = "High"
)

// Thresholds in percent and milliseconds
const (
	PoorLossPercent     = 50
	UnstableLossPercent = 20
	ExcellentAvgMs      = 50
	GoodAvgMs           = 100
	LowJitterMs         = 10
	MediumJitterMs      = 30
)

// Classification is the tier pair derived from one TargetStatistics
type Classification struct {
	Tier       Tier       `json:"tier"`
	JitterTier JitterTier `json:"jitter_tier"`
}

// Classify grades statistics. Loss checks run before latency checks, first match wins.
func Classify(s models.TargetStatistics) Classification {
	return Classification{
		Tier:       classifyTier(s),
		JitterTier: classifyJitter(s.Jitter),
	}
}

func classifyTier(s models.TargetStatistics) Tier {
	switch {
	case s.PacketLoss >= 100 || s.Avg == 0:
		return Failed
	case s.PacketLoss > PoorLossPercent:
		return Poor
	case s.PacketLoss > UnstableLossPercent:
		return Unstable
	case s.Avg < ExcellentAvgMs:
		return Excellent
	case s.Avg < GoodAvgMs:
		return Good
	default:
		return Poor
	}
}

func classifyJitter(jitter float64) JitterTier {
	switch {
	case jitter < LowJitterMs:
		return JitterLow
	case jitter < MediumJitterMs:
		return JitterMedium
	default:
		return JitterHigh
	}
}
