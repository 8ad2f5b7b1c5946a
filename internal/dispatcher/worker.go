// Package dispatcher runs queued stitch jobs on a bounded worker pool.
// One job is one whole assembly; the pool never splits a job.
package dispatcher

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Job is one unit of queued work.
type Job struct {
	ID  string
	Run func()
}

// Config sizes the pool.
type Config struct {
	Concurrency int
	Backlog     int
}

// Pool executes jobs with bounded concurrency and a bounded backlog.
type Pool struct {
	cfg    Config
	jobs   chan Job
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New returns a Pool; Start launches its workers.
func New(cfg Config) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.Backlog <= 0 {
		cfg.Backlog = 4 * cfg.Concurrency
	}
	return &Pool{cfg: cfg, jobs: make(chan Job, cfg.Backlog)}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.cfg.Concurrency; i++ {
		p.wg.Add(1)
		go p.loop(i)
	}
}

// Enqueue hands a job to the pool without blocking. It reports whether
// the backlog had room.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// Stop refuses new jobs, drains the backlog and waits for in-flight
// work. Safe to call twice.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	log.Info().Int("worker", id).Msg("stitch worker started")
	for job := range p.jobs {
		p.run(id, job)
	}
	log.Info().Int("worker", id).Msg("stitch worker stopped")
}

// run isolates one job so a panic is logged without killing the worker.
func (p *Pool) run(id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("worker", id).Str("job_id", job.ID).Interface("panic", r).Msg("job panicked")
		}
	}()
	log.Debug().Int("worker", id).Str("job_id", job.ID).Msg("job started")
	job.Run()
	log.Debug().Int("worker", id).Str("job_id", job.ID).Msg("job finished")
}
