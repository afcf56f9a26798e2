package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"latency-dashboard/internal/models"
)

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		name  string
		stats models.TargetStatistics
		want  Tier
	}{
		{"total loss", models.TargetStatistics{Avg: 12, PacketLoss: 100}, Failed},
		{"zero average", models.TargetStatistics{Avg: 0, PacketLoss: 0}, Failed},
		{"zero average with partial loss", models.TargetStatistics{Avg: 0, PacketLoss: 30}, Failed},
		{"loss precedes latency", models.TargetStatistics{Avg: 10, PacketLoss: 60}, Poor},
		{"loss just above unstable", models.TargetStatistics{Avg: 10, PacketLoss: 20.5}, Unstable},
		{"loss at unstable boundary", models.TargetStatistics{Avg: 10, PacketLoss: 20}, Excellent},
		{"loss at poor boundary", models.TargetStatistics{Avg: 10, PacketLoss: 50}, Unstable},
		{"fast", models.TargetStatistics{Avg: 49.99}, Excellent},
		{"excellent boundary", models.TargetStatistics{Avg: 50}, Good},
		{"good", models.TargetStatistics{Avg: 99.9}, Good},
		{"good boundary", models.TargetStatistics{Avg: 100}, Poor},
		{"slow", models.TargetStatistics{Avg: 201.7}, Poor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.stats).Tier)
		})
	}
}

func TestClassifyJitter(t *testing.T) {
	tests := []struct {
		jitter float64
		want   JitterTier
	}{
		{0, JitterLow},
		{9.99, JitterLow},
		{10, JitterMedium},
		{29.9, JitterMedium},
		{30, JitterHigh},
		{250, JitterHigh},
	}

	for _, tt := range tests {
		got := Classify(models.TargetStatistics{Avg: 10, Jitter: tt.jitter}).JitterTier
		assert.Equal(t, tt.want, got, "jitter %v", tt.jitter)
	}
}

func TestFailedRegardlessOfOtherFields(t *testing.T) {
	for _, s := range []models.TargetStatistics{
		{PacketLoss: 100, Avg: 5, Jitter: 0, Min: 1, Max: 9},
		{PacketLoss: 100, Avg: 500, Jitter: 90},
		{PacketLoss: 0, Avg: 0, Jitter: 45},
	} {
		assert.Equal(t, Failed, Classify(s).Tier)
	}
}

func TestRowsKeepOrder(t *testing.T) {
	rs := models.NewResultSet()
	rs.Set("8.8.8.8", models.TargetStatistics{Avg: 11.5})
	rs.Set("1.1.1.1", models.TargetStatistics{Avg: 0, PacketLoss: 100})

	rows := Rows(rs)
	if assert.Len(t, rows, 2) {
		assert.Equal(t, "8.8.8.8", rows[0].Target)
		assert.Equal(t, Excellent, rows[0].Tier)
		assert.Equal(t, "1.1.1.1", rows[1].Target)
		assert.Equal(t, Failed, rows[1].Tier)
		assert.Equal(t, models.DefaultProtocol, rows[1].Protocol)
	}
	assert.Empty(t, Rows(nil))
}
