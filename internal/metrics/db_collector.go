package metrics

import (
	"database/sql"
	"time"
)

// DBStatsCollector periodically publishes database/sql pool statistics.
type DBStatsCollector struct {
	db     *sql.DB
	stopCh chan struct{}
}

// NewDBStatsCollector creates a new database stats collector.
func NewDBStatsCollector(db *sql.DB) *DBStatsCollector {
	return &DBStatsCollector{
		db:     db,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting database statistics at regular intervals.
func (c *DBStatsCollector) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop stops the database stats collector.
func (c *DBStatsCollector) Stop() {
	close(c.stopCh)
}

func (c *DBStatsCollector) collect() {
	if c.db == nil {
		return
	}
	stats := c.db.Stats()
	DBConnectionsOpen.Set(float64(stats.OpenConnections))
	DBConnectionsInUse.Set(float64(stats.InUse))
	DBConnectionsIdle.Set(float64(stats.Idle))
}
