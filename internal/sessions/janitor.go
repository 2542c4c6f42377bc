package sessions

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Janitor periodically evicts idle client contexts.
type Janitor struct {
	scheduler *gocron.Scheduler
	store     *Store
	ttl       time.Duration
	interval  time.Duration
}

func NewJanitor(store *Store, ttl, interval time.Duration) *Janitor {
	return &Janitor{
		scheduler: gocron.NewScheduler(time.UTC),
		store:     store,
		ttl:       ttl,
		interval:  interval,
	}
}

// Start schedules the sweep and returns immediately.
func (j *Janitor) Start() error {
	if _, err := j.scheduler.Every(j.interval).Do(j.sweep); err != nil {
		return err
	}
	j.scheduler.StartAsync()
	return nil
}

func (j *Janitor) Stop() {
	j.scheduler.Stop()
}

func (j *Janitor) sweep() {
	if n := j.store.Sweep(j.ttl); n > 0 {
		log.Printf("[sessions] evicted %d idle sessions, %d active", n, j.store.Len())
	}
}
