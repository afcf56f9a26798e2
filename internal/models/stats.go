package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultProtocol is assumed for statistics that do not name a protocol
const DefaultProtocol = "ICMP"

// TargetStatistics represents the outcome of probing one target.
// Latencies holds one entry per probe attempt in send order; nil marks a lost packet.
type TargetStatistics struct {
	Latencies          []*float64 `json:"latencies"`
	Avg                float64    `json:"avg"`
	Min                float64    `json:"min"`
	Max                float64    `json:"max"`
	Jitter             float64    `json:"jitter"`
	StdDev             float64    `json:"std_dev"`
	PacketLoss         float64    `json:"packet_loss"` // percentage
	ThroughputEstimate float64    `json:"throughput_estimate"` // Mbps
	Protocol           string     `json:"protocol"`
}

// Failed reports the canonical fully failed signature
func (s TargetStatistics) Failed() bool {
	return s.Avg == 0
}

// normalize resolves optional fields to their documented defaults
func (s TargetStatistics) normalize() TargetStatistics {
	if s.Protocol == "" {
		s.Protocol = DefaultProtocol
	}
	if s.ThroughputEstimate < 0 {
		s.ThroughputEstimate = 0
	}
	if s.Jitter < 0 {
		s.Jitter = 0
	}
	return s
}

// ResultSet maps target identifiers to statistics, preserving insertion order.
// A ResultSet is built once by the measurement engine and treated as read-only afterwards.
type ResultSet struct {
	order []string
	stats map[string]TargetStatistics
}

// NewResultSet creates an empty result set
func NewResultSet() *ResultSet {
	return &ResultSet{stats: make(map[string]TargetStatistics)}
}

// Set stores statistics for a target. The first Set of a target fixes its position.
func (rs *ResultSet) Set(target string, s TargetStatistics) {
	if rs.stats == nil {
		rs.stats = make(map[string]TargetStatistics)
	}
	if _, ok := rs.stats[target]; !ok {
		rs.order = append(rs.order, target)
	}
	rs.stats[target] = s.normalize()
}

// Get returns the statistics for a target
func (rs *ResultSet) Get(target string) (TargetStatistics, bool) {
	if rs == nil {
		return TargetStatistics{}, false
	}
	s, ok := rs.stats[target]
	return s, ok
}

// Len returns the number of targets
func (rs *ResultSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.order)
}

// Targets returns the target identifiers in insertion order
func (rs *ResultSet) Targets() []string {
	if rs == nil {
		return nil
	}
	out := make([]string, len(rs.order))
	copy(out, rs.order)
	return out
}

// Each calls fn for every target in insertion order
func (rs *ResultSet) Each(fn func(target string, s TargetStatistics)) {
	if rs == nil {
		return
	}
	for _, target := range rs.order {
		fn(target, rs.stats[target])
	}
}

// MarshalJSON encodes the set as a JSON object keyed by target, in insertion order
func (rs *ResultSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, target := range rs.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(target)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(rs.stats[target])
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", target, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the document
func (rs *ResultSet) UnmarshalJSON(data []byte) error {
	rs.order = nil
	rs.stats = make(map[string]TargetStatistics)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("result set: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		target, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("result set: expected target key, got %v", keyTok)
		}
		var s TargetStatistics
		if err := dec.Decode(&s); err != nil {
			return fmt.Errorf("result set: decode %s: %w", target, err)
		}
		rs.Set(target, s)
	}

	_, err = dec.Token()
	return err
}

// HistoricalRecord is one completed measurement in the history log
type HistoricalRecord struct {
	Timestamp string     `json:"timestamp"`
	Data      *ResultSet `json:"data"`
}

// Settings holds user adjustable measurement defaults
type Settings struct {
	DefaultPings int    `json:"default_pings"`
	PingTimeout  int    `json:"ping_timeout"` // seconds
	StoragePath  string `json:"storage_path"`
}

// DefaultSettings are used until the user saves their own
func DefaultSettings(storagePath string) Settings {
	return Settings{
		DefaultPings: 5,
		PingTimeout:  2,
		StoragePath:  storagePath,
	}
}
