package devotional

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vilisasu/bibleai-api/internal/generation"
	"github.com/vilisasu/bibleai-api/internal/task"
)

// Outcome tags how a batch produced its rows.
type Outcome string

// Batch outcomes.
const (
	OutcomeParsed   Outcome = "parsed"
	OutcomeFallback Outcome = "fallback"
	OutcomeError    Outcome = "error"
)

var errBatchAborted = errors.New("batch aborted before completion")

// batchResult is the tagged result of one batch: Parsed(rows) or
// Fallback(reason). err is set only for hard failures.
type batchResult struct {
	kind     Kind
	index    int
	rows     [][]string
	outcome  Outcome
	reason   string
	repaired int
	elapsed  time.Duration
	err      error
}

// batchTask generates one batch on a worker. It always delivers exactly one
// batchResult on results, which must have room for it.
type batchTask struct {
	id        uuid.UUID
	ctx       context.Context
	kind      Kind
	index     int
	request   generation.CompletionRequest
	timeout   time.Duration
	completer generation.Completer
	results   chan<- batchResult
}

var _ task.Task = (*batchTask)(nil)

func (t *batchTask) ID() uuid.UUID { return t.id }

func (t *batchTask) Type() string {
	if t.kind == KindVerse {
		return task.TaskTypeVerseBatch
	}
	return task.TaskTypePrayerBatch
}

// Execute runs the completion call under the request context, canceled
// early if the pool stops. Only hard failures are returned to the pool.
func (t *batchTask) Execute(poolCtx context.Context) error {
	start := time.Now()
	res := batchResult{kind: t.kind, index: t.index, outcome: OutcomeError, err: errBatchAborted}
	defer func() {
		res.elapsed = time.Since(start)
		t.results <- res
	}()

	ctx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(poolCtx, cancel)
	defer stop()

	if err := ctx.Err(); err != nil {
		res.err = err
		return nil
	}

	res = t.run(ctx)
	if res.err != nil {
		return res.err
	}
	return nil
}

func (t *batchTask) run(ctx context.Context) batchResult {
	res := batchResult{kind: t.kind, index: t.index}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	resp, err := t.completer.Complete(callCtx, t.request)
	timedOut := errors.Is(callCtx.Err(), context.DeadlineExceeded)
	cancel()

	switch {
	case err == nil:
	case ctx.Err() != nil:
		res.outcome = OutcomeError
		res.err = ctx.Err()
		return res
	case timedOut:
		return t.fallback(res, fmt.Sprintf("completion timed out after %s", t.timeout))
	case errors.Is(err, generation.ErrInvalidResponse), errors.Is(err, generation.ErrContentBlocked):
		return t.fallback(res, err.Error())
	default:
		res.outcome = OutcomeError
		res.err = fmt.Errorf("%s batch %d: %w", t.kind, t.index, err)
		return res
	}

	if resp == nil {
		return t.fallback(res, "empty completion response")
	}

	rows, repaired, err := parseRows(t.kind, t.index, resp.Text)
	if err != nil {
		return t.fallback(res, "malformed output: "+err.Error())
	}

	res.outcome = OutcomeParsed
	res.rows = rows
	res.repaired = repaired
	return res
}

func (t *batchTask) fallback(res batchResult, reason string) batchResult {
	res.outcome = OutcomeFallback
	res.reason = reason
	res.rows = fallbackRows(t.kind, t.index)
	return res
}
