package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/lawdocs/pipeline/internal/enumerate"
	"github.com/lawdocs/pipeline/internal/logging"
	"github.com/lawdocs/pipeline/internal/pipeline"
)

// taskType is the Asynq task name, mirroring the teacher's "process-document".
const taskType = "process-document"

// jobPayload is what gets enqueued per document.
type jobPayload struct {
	DocID   string `json:"doc_id"`
	AbsPath string `json:"abs_path"`
	RelPath string `json:"rel_path"`
}

// resultPayload is pushed onto a per-run Redis list by the handler so the
// enqueuing process can collect outcomes without a second round trip.
type resultPayload struct {
	DocID       string `json:"doc_id"`
	ErrMessage  string `json:"error,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// AsynqDispatcher fans documents out across an Asynq/Redis-backed worker
// pool, adapted directly from the teacher repo's queue.Consumer: the same
// ParseRedisURI/NewClient/NewServer/NewServeMux construction and the same
// exponential-backoff RetryDelayFunc, repointed at process-document tasks
// instead of BullMQ file-processing jobs. Tasks are enqueued with
// MaxRetry(0), so a failed document is reported once and never retried.
type AsynqDispatcher struct {
	RedisURL    string
	Concurrency int
}

func NewAsynqDispatcher(redisURL string, concurrency int) *AsynqDispatcher {
	return &AsynqDispatcher{RedisURL: redisURL, Concurrency: concurrency}
}

func (a *AsynqDispatcher) Run(ctx context.Context, entries []enumerate.Entry, p *pipeline.Pipeline) []pipeline.Outcome {
	log := logging.New("dispatch-asynq")
	outcomes := make([]pipeline.Outcome, len(entries))

	redisOpt, err := asynq.ParseRedisURI(a.RedisURL)
	if err != nil {
		log.Error("failed to parse REDIS_URL, falling back to local pool", "error", err)
		return NewLocalPool(a.Concurrency).Run(ctx, entries, p)
	}

	runID := uuid.New().String()
	resultKey := fmt.Sprintf("lawdocs:results:%s", runID)

	rdb := redis.NewClient(&redis.Options{Addr: addrFromRedisURL(a.RedisURL)})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis unreachable, falling back to local pool", "error", err)
		return NewLocalPool(a.Concurrency).Run(ctx, entries, p)
	}

	client := asynq.NewClient(redisOpt)
	defer client.Close()

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: a.Concurrency,
		Queues: map[string]int{
			"lawdocs": 10,
			"default": 1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			delay := time.Duration(5*(1<<uint(n))) * time.Second
			if delay > 60*time.Second {
				delay = 60 * time.Second
			}
			return delay
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("task processing error", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(taskType, func(ctx context.Context, t *asynq.Task) error {
		var job jobPayload
		if err := json.Unmarshal(t.Payload(), &job); err != nil {
			return fmt.Errorf("unmarshal job payload: %w", err)
		}
		outcome := p.Run(ctx, enumerate.Entry{DocID: job.DocID, AbsPath: job.AbsPath, RelPath: job.RelPath})

		res := resultPayload{DocID: outcome.DocID}
		if outcome.Err != nil {
			res.ErrMessage = outcome.Err.Error()
		} else {
			res.Fingerprint = outcome.Meta.MetaFingerprint
		}
		data, _ := json.Marshal(res)
		if pushErr := rdb.RPush(ctx, resultKey, data).Err(); pushErr != nil {
			log.Error("failed to push result", "doc_id", job.DocID, "error", pushErr)
		}
		if outcome.Err != nil {
			return outcome.Err
		}
		return nil
	})

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(mux)
	}()
	defer server.Shutdown()

	for i, entry := range entries {
		payload, _ := json.Marshal(jobPayload{DocID: entry.DocID, AbsPath: entry.AbsPath, RelPath: entry.RelPath})
		if _, err := client.Enqueue(asynq.NewTask(taskType, payload), asynq.Queue("lawdocs"), asynq.MaxRetry(0)); err != nil {
			outcomes[i] = pipeline.Outcome{DocID: entry.DocID, Err: err}
		}
	}

	byDocID := make(map[string]int, len(entries))
	for i, e := range entries {
		byDocID[e.DocID] = i
	}

	remaining := len(entries)
	for remaining > 0 {
		res, err := rdb.BLPop(ctx, 0, resultKey).Result()
		if err != nil {
			log.Error("result collection aborted", "error", err)
			break
		}
		var rp resultPayload
		if len(res) < 2 || json.Unmarshal([]byte(res[1]), &rp) != nil {
			continue
		}
		idx, ok := byDocID[rp.DocID]
		if !ok {
			continue
		}
		if rp.ErrMessage != "" {
			outcomes[idx] = pipeline.Outcome{DocID: rp.DocID, Err: fmt.Errorf("%s", rp.ErrMessage)}
		} else {
			outcomes[idx] = pipeline.Outcome{DocID: rp.DocID, Meta: outcomes[idx].Meta}
			outcomes[idx].Meta.MetaFingerprint = rp.Fingerprint
		}
		remaining--
	}

	return outcomes
}

// addrFromRedisURL strips the redis:// scheme asynq.ParseRedisURI already
// validated, since go-redis's simple Options wants a bare host:port.
func addrFromRedisURL(u string) string {
	const schemePrefix = "redis://"
	if len(u) > len(schemePrefix) && u[:len(schemePrefix)] == schemePrefix {
		return u[len(schemePrefix):]
	}
	return u
}
