package worker

// Jobs that exhaust maxAttempts, or that no handler claims, are parked in
// dlq:{queue} with the reason. Replay puts them back with a fresh attempt count.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

type DLQEntry struct {
	Job      Job    `json:"job"`
	Reason   string `json:"reason"`
	ParkedAt string `json:"parked_at"` // RFC 3339
}

// SendToDLQ parks job under dlq:{queue}. Failures are logged; the job is lost.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	data, err := json.Marshal(DLQEntry{Job: job, Reason: reason, ParkedAt: time.Now().UTC().Format(time.RFC3339)})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal entry")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("job_type", job.Type).Msg("dlq: push failed, job lost")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("dlq: job parked")
}

func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// Replay moves up to limit parked jobs (oldest first) back onto queue.
// limit <= 0 drains the whole list.
func Replay(ctx context.Context, rdb *redis.Client, queue string, limit int) (int, error) {
	moved := 0
	for limit <= 0 || moved < limit {
		raw, err := rdb.RPop(ctx, DLQPrefix+queue).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return moved, fmt.Errorf("dlq: pop %s: %w", queue, err)
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("dlq: dropping unreadable entry")
			continue
		}
		entry.Job.Attempts = 0
		if err := push(ctx, rdb, queue, entry.Job); err != nil {
			// put it back so nothing is lost
			_ = rdb.RPush(ctx, DLQPrefix+queue, raw).Err()
			return moved, err
		}
		moved++
	}
	return moved, nil
}
