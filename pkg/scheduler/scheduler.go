package scheduler

import (
	"context"
	"log"
	"time"
)

// Job — периодическая работа, запускаемая планировщиком
type Job func(ctx context.Context) error

// Scheduler запускает именованную работу с фиксированным интервалом
type Scheduler struct {
	name     string
	job      Job
	interval time.Duration
}

func NewScheduler(name string, job Job, interval time.Duration) *Scheduler {
	return &Scheduler{
		name:     name,
		job:      job,
		interval: interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.job(ctx); err != nil {
				log.Printf("Scheduler %s: job failed: %v", s.name, err)
			}
		case <-ctx.Done():
			return
		}
	}
}
