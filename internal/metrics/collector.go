package metrics

import (
	"context"
	"sync"
	"time"

	"nyapix/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats(ctx context.Context) (Stats, error)
}

// Stats holds the current catalogue statistics
type Stats struct {
	Images          int
	Videos          int
	Audio           int
	WithoutMedia    int
	Tags            int
	Characters      int
	Authors         int
	Albums          int
	Users           int
	OpenConnections int
}

// Contents returns the total number of content items.
func (s Stats) Contents() int {
	return s.Images + s.Videos + s.Audio + s.WithoutMedia
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	timeout       time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		timeout:       10 * time.Second,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.statsProvider.GetStats(ctx)
	if err != nil {
		logging.Warn("Failed to collect catalogue stats: %v", err)
		return
	}

	ContentsTotal.WithLabelValues("image").Set(float64(stats.Images))
	ContentsTotal.WithLabelValues("video").Set(float64(stats.Videos))
	ContentsTotal.WithLabelValues("audio").Set(float64(stats.Audio))
	ContentsTotal.WithLabelValues("none").Set(float64(stats.WithoutMedia))
	FacetsTotal.WithLabelValues("tag").Set(float64(stats.Tags))
	FacetsTotal.WithLabelValues("character").Set(float64(stats.Characters))
	FacetsTotal.WithLabelValues("author").Set(float64(stats.Authors))
	AlbumsTotal.Set(float64(stats.Albums))
	UsersTotal.Set(float64(stats.Users))
	DBConnectionsOpen.Set(float64(stats.OpenConnections))

	logging.Debug("Metrics collected: contents=%d, tags=%d, characters=%d, authors=%d, albums=%d",
		stats.Contents(), stats.Tags, stats.Characters, stats.Authors, stats.Albums)
}
