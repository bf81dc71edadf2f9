package worker

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"chicpos/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueClosureReceipt = "jobs:closure_receipt"
	QueueEmail          = "jobs:email"

	JobClosureReceipt = "closure_receipt"
	JobEmail          = "email"

	// a job failing this many times goes to the dead letter queue
	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts,omitempty"`
}

// Handler processes one job payload. A returned error puts the job back on
// its queue until maxAttempts is reached.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueClosureReceipt schedules the PDF receipt of a stored closure.
func (d *Dispatcher) EnqueueClosureReceipt(ctx context.Context, closureID uuid.UUID) error {
	return d.enqueue(ctx, QueueClosureReceipt, JobClosureReceipt, ClosureReceiptPayload{ClosureID: closureID.String()})
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb *redis.Client, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the registered queues with a fixed number of goroutines.
type Pool struct {
	rdb      *redis.Client
	metrics  *metrics.Metrics
	handlers map[string]Handler
	queues   []string
}

func NewPool(rdb *redis.Client, m *metrics.Metrics) *Pool {
	return &Pool{rdb: rdb, metrics: m, handlers: make(map[string]Handler)}
}

// Register routes jobs of jobType, read from queue, to h.
func (p *Pool) Register(queue, jobType string, h Handler) {
	if !slices.Contains(p.queues, queue) {
		p.queues = append(p.queues, queue)
	}
	p.handlers[jobType] = h
}

// Start launches numWorkers goroutines consuming every registered queue.
// Each goroutine blocks on BRPOP, so idle workers cost nothing.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", p.queues).Msg("worker pool started")
}

// popBackoff is the pause after a Redis error other than an empty pop.
var popBackoff = time.Second

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err == redis.Nil || ctx.Err() != nil {
				continue // timeout or context cancelled
			}
			if err != nil {
				log.Warn().Err(err).Int("worker", id).Msg("brpop failed, backing off")
				select {
				case <-ctx.Done():
				case <-time.After(popBackoff):
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.metrics.JobProcessed("unknown", "malformed")
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job, "no handler registered")
		p.metrics.JobProcessed(job.Type, "dead")
		return
	}

	err := h.Process(ctx, job.Payload)
	if err == nil {
		p.metrics.JobProcessed(job.Type, "ok")
		return
	}

	job.Attempts++
	if job.Attempts >= maxAttempts {
		SendToDLQ(ctx, p.rdb, queue, job, err.Error())
		p.metrics.JobProcessed(job.Type, "dead")
		return
	}
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeueing")
	p.metrics.JobProcessed(job.Type, "retry")
	if err := push(ctx, p.rdb, queue, job); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("requeue failed, job lost")
	}
}
