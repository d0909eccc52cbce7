package jobqueue

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueName is the River queue business events are inserted into.
const QueueName = "business_events"

// Config holds the tunables for the business-event queue.
type Config struct {
	// MaxWorkers caps concurrent notification emits.
	MaxWorkers int
	// JobTimeout bounds a single emit, including the store round trip.
	JobTimeout time.Duration
	// FetchPollInterval is how often idle workers poll for new jobs.
	FetchPollInterval time.Duration
}

// DefaultConfig returns settings suitable for a single instance.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:        10,
		JobTimeout:        30 * time.Second,
		FetchPollInterval: time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = d.MaxWorkers
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = d.JobTimeout
	}
	if c.FetchPollInterval <= 0 {
		c.FetchPollInterval = d.FetchPollInterval
	}
	return c
}

// riverQueues returns the River queue configuration.
func (c Config) riverQueues() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		QueueName: {MaxWorkers: c.MaxWorkers},
	}
}
