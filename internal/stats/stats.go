package stats

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// StatsCollector manages application-wide statistics
type StatsCollector struct {
	StartTime        time.Time
	MessagesReceived uint64
	MessagesHandled  uint64
	MessagesDropped  uint64
	ClipboardErrors  uint64
	ConnectAttempts  uint64
	ConnectFailures  uint64
}

// NewStatsCollector creates a new stats collector
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		StartTime: time.Now(),
	}
}

func (s *StatsCollector) IncReceived()        { atomic.AddUint64(&s.MessagesReceived, 1) }
func (s *StatsCollector) IncHandled()         { atomic.AddUint64(&s.MessagesHandled, 1) }
func (s *StatsCollector) IncDropped()         { atomic.AddUint64(&s.MessagesDropped, 1) }
func (s *StatsCollector) IncClipboardErrors() { atomic.AddUint64(&s.ClipboardErrors, 1) }
func (s *StatsCollector) IncConnectAttempts() { atomic.AddUint64(&s.ConnectAttempts, 1) }
func (s *StatsCollector) IncConnectFailures() { atomic.AddUint64(&s.ConnectFailures, 1) }

// GetStats returns current statistics
func (s *StatsCollector) GetStats() map[string]interface{} {
	uptime := time.Since(s.StartTime)
	return map[string]interface{}{
		"uptime":            uptime.String(),
		"messages_received": atomic.LoadUint64(&s.MessagesReceived),
		"messages_handled":  atomic.LoadUint64(&s.MessagesHandled),
		"messages_dropped":  atomic.LoadUint64(&s.MessagesDropped),
		"clipboard_errors":  atomic.LoadUint64(&s.ClipboardErrors),
		"connect_attempts":  atomic.LoadUint64(&s.ConnectAttempts),
		"connect_failures":  atomic.LoadUint64(&s.ConnectFailures),
	}
}

// GetStatsJSON returns stats as JSON
func (s *StatsCollector) GetStatsJSON() ([]byte, error) {
	return json.Marshal(s.GetStats())
}

// LogArgs flattens the stats into slog key/value pairs
func (s *StatsCollector) LogArgs() []interface{} {
	return []interface{}{
		"uptime", time.Since(s.StartTime).Round(time.Second).String(),
		"received", atomic.LoadUint64(&s.MessagesReceived),
		"handled", atomic.LoadUint64(&s.MessagesHandled),
		"dropped", atomic.LoadUint64(&s.MessagesDropped),
		"connectAttempts", atomic.LoadUint64(&s.ConnectAttempts),
	}
}

// CalculateRate calculates the handled message rate per second
func (s *StatsCollector) CalculateRate() float64 {
	uptime := time.Since(s.StartTime).Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&s.MessagesHandled)) / uptime
}
