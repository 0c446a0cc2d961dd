package memory

import (
	"math"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"nyapix/internal/logging"
	"nyapix/internal/metrics"
)

const (
	// DefaultMemoryRatio is the share of the container limit given to the Go
	// heap. The rest covers goroutine stacks and multipart buffers.
	DefaultMemoryRatio = 0.85

	// DefaultHighWaterMark is the share of the limit above which uploads are
	// turned away.
	DefaultHighWaterMark = 0.8

	// DefaultCheckInterval is how often the monitor samples the heap.
	DefaultCheckInterval = 5 * time.Second
)

// ConfigResult describes how GOMEMLIMIT was set up.
type ConfigResult struct {
	Configured     bool
	Source         string // "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv sets GOMEMLIMIT from a container limit passed through
// MEMORY_LIMIT, scaled by MEMORY_RATIO. An explicit GOMEMLIMIT wins. Call it
// early in main.
func ConfigureFromEnv() ConfigResult {
	if v := os.Getenv("GOMEMLIMIT"); v != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", v)
		return result
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return ConfigResult{Source: "none"}
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return ConfigResult{Source: "none"}
	}

	ratio := parseRatio(os.Getenv("MEMORY_RATIO"))
	goMemLimit := int64(float64(limit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(limit))

	return ConfigResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: limit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func parseRatio(s string) float64 {
	if s == "" {
		return DefaultMemoryRatio
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r <= 0 || r > 1 {
		logging.Warn("MEMORY_RATIO %q invalid or out of range (0.0-1.0), using default %.2f", s, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return r
}

// Monitor samples heap usage against the memory limit so that large
// uploads can be refused before the process runs out of memory.
type Monitor struct {
	limit     int64
	highWater float64
	interval  time.Duration
	readAlloc func() uint64

	mu        sync.RWMutex
	current   uint64
	throttled bool

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMonitor creates a monitor for limit bytes. A zero limit falls back to
// GOMEMLIMIT; with neither set the monitor never throttles.
func NewMonitor(limit int64, highWater float64) *Monitor {
	if limit <= 0 {
		limit = 0
		if l := debug.SetMemoryLimit(-1); l > 0 && l < math.MaxInt64 {
			limit = l
		}
	}
	if highWater <= 0 || highWater > 1 {
		highWater = DefaultHighWaterMark
	}
	return &Monitor{
		limit:     limit,
		highWater: highWater,
		interval:  DefaultCheckInterval,
		readAlloc: heapAlloc,
		stop:      make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Limit returns the limit the monitor compares against, or 0.
func (m *Monitor) Limit() int64 {
	return m.limit
}

// Start begins sampling in the background. It does nothing without a limit.
func (m *Monitor) Start() {
	if m.limit == 0 {
		logging.Info("Memory monitor: no memory limit configured, upload throttling disabled")
		return
	}
	m.check()
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.check()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) check() {
	alloc := m.readAlloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case usage >= m.highWater && !m.throttled:
		logging.Warn("Memory high (%.1f%% of limit), refusing uploads", usage*100)
		m.throttled = true
		metrics.MemoryThrottled.Set(1)
		go runtime.GC()
	case usage < m.highWater && m.throttled:
		logging.Info("Memory recovered (%.1f%% of limit), accepting uploads", usage*100)
		m.throttled = false
		metrics.MemoryThrottled.Set(0)
	}
}

// ShouldThrottle reports whether heap usage was at or above the high water
// mark at the last sample. A nil monitor never throttles.
func (m *Monitor) ShouldThrottle() bool {
	if m == nil || m.limit == 0 {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.throttled
}

// Usage returns heap usage as a share of the limit, or 0 without a limit.
func (m *Monitor) Usage() float64 {
	if m == nil || m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
