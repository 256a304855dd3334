package devotional

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vilisasu/bibleai-api/internal/generation"
	"github.com/vilisasu/bibleai-api/internal/platform/logger"
	"github.com/vilisasu/bibleai-api/internal/task"
)

// MergeOrder selects how batches are concatenated.
type MergeOrder string

const (
	// MergeByCompletion concatenates batches in the order they finished.
	MergeByCompletion MergeOrder = "completion"
	// MergeBySubmission concatenates batches by batch index.
	MergeBySubmission MergeOrder = "submission"
)

// Sampling settings for batch calls.
const (
	verseMaxTokens   = 1500
	prayerMaxTokens  = 1200
	batchTemperature = 1.2
	batchTopP        = 0.95
	batchPenalty     = 0.8
)

// DefaultBatchTimeout bounds each completion call when Config leaves it unset.
const DefaultBatchTimeout = 45 * time.Second

// Config tunes an Aggregator.
type Config struct {
	BatchTimeout time.Duration
	MergeOrder   MergeOrder
}

// Recorder receives batch and aggregate measurements.
type Recorder interface {
	RecordBatch(ctx context.Context, kind string, outcome string, elapsed time.Duration)
	RecordAggregate(ctx context.Context, outcome string, elapsed time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordBatch(context.Context, string, string, time.Duration) {}
func (noopRecorder) RecordAggregate(context.Context, string, time.Duration)     {}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithRandSource replaces the randomness used in prompts.
func WithRandSource(r RandSource) Option {
	return func(a *Aggregator) { a.rand = r }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) { a.recorder = r }
}

// WithClock replaces time.Now for prompt seeds.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// Aggregator produces the verse and prayer collections.
type Aggregator struct {
	completer generation.Completer
	queue     task.TaskQueueWriter
	config    Config
	logger    *slog.Logger
	rand      RandSource
	recorder  Recorder
	now       func() time.Time
}

// NewAggregator creates an Aggregator that submits batches to queue. The
// workers draining queue must be able to run all six batches at once.
func NewAggregator(
	completer generation.Completer,
	queue task.TaskQueueWriter,
	config Config,
	logger *slog.Logger,
	opts ...Option,
) (*Aggregator, error) {
	if completer == nil {
		return nil, fmt.Errorf("%w: completer is required", generation.ErrInvalidConfig)
	}
	if queue == nil {
		return nil, fmt.Errorf("%w: task queue is required", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchTimeout <= 0 {
		config.BatchTimeout = DefaultBatchTimeout
	}
	switch config.MergeOrder {
	case MergeByCompletion, MergeBySubmission:
	case "":
		config.MergeOrder = MergeByCompletion
	default:
		return nil, fmt.Errorf("%w: unknown merge order %q", generation.ErrInvalidConfig, config.MergeOrder)
	}

	a := &Aggregator{
		completer: completer,
		queue:     queue,
		config:    config,
		logger:    logger.With("component", "devotional_aggregator"),
		rand:      globalRand{},
		recorder:  noopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Produce runs all batches concurrently and returns exactly TargetCount
// verses and TargetCount prayers. It fails only when a batch hits a hard
// backend error, when the queue refuses a batch, or when ctx ends first;
// remaining batches are canceled in that case.
func (a *Aggregator) Produce(ctx context.Context) (*AggregateResult, error) {
	start := time.Now()
	log := a.logger
	if l := logger.FromContext(ctx); l != nil {
		log = l.With("component", "devotional_aggregator")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks, err := a.buildTasks(ctx)
	if err != nil {
		return nil, err
	}
	results := make(chan batchResult, len(tasks))
	for _, t := range tasks {
		t.results = results
	}

	for _, t := range tasks {
		if err := a.queue.Enqueue(t); err != nil {
			a.recorder.RecordAggregate(ctx, string(OutcomeError), time.Since(start))
			return nil, fmt.Errorf("failed to schedule %s batch %d: %w", t.kind, t.index, err)
		}
	}

	collected := make([]batchResult, 0, len(tasks))
	for len(collected) < len(tasks) {
		select {
		case <-ctx.Done():
			a.recorder.RecordAggregate(ctx, string(OutcomeError), time.Since(start))
			return nil, fmt.Errorf("devotional aggregate interrupted: %w", ctx.Err())
		case res := <-results:
			a.recorder.RecordBatch(ctx, string(res.kind), string(res.outcome), res.elapsed)
			if res.err != nil {
				a.recorder.RecordAggregate(ctx, string(OutcomeError), time.Since(start))
				return nil, res.err
			}
			a.logBatch(log, res)
			collected = append(collected, res)
		}
	}

	orderBatches(collected, a.config.MergeOrder)
	result := &AggregateResult{
		Verses:  toVerses(assemble(KindVerse, collected)),
		Prayers: toPrayers(assemble(KindPrayer, collected)),
	}

	a.recorder.RecordAggregate(ctx, "success", time.Since(start))
	log.Info("devotional aggregate produced",
		"verses", len(result.Verses),
		"prayers", len(result.Prayers),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (a *Aggregator) buildTasks(ctx context.Context) ([]*batchTask, error) {
	tasks := make([]*batchTask, 0, 2*BatchesPerKind)
	for _, kind := range []Kind{KindVerse, KindPrayer} {
		maxTokens := verseMaxTokens
		if kind == KindPrayer {
			maxTokens = prayerMaxTokens
		}

		for index := 1; index <= BatchesPerKind; index++ {
			prompt, err := buildPrompt(kind, newPromptData(a.rand, a.now()))
			if err != nil {
				return nil, err
			}

			tasks = append(tasks, &batchTask{
				id:    uuid.New(),
				ctx:   ctx,
				kind:  kind,
				index: index,
				request: generation.CompletionRequest{
					SystemPrompt:     systemPrompt(kind),
					Messages:         []generation.Message{{Role: generation.RoleUser, Content: prompt}},
					MaxTokens:        maxTokens,
					Temperature:      batchTemperature,
					TopP:             batchTopP,
					FrequencyPenalty: batchPenalty,
					PresencePenalty:  batchPenalty,
				},
				timeout:   a.config.BatchTimeout,
				completer: a.completer,
			})
		}
	}
	return tasks, nil
}

func (a *Aggregator) logBatch(log *slog.Logger, res batchResult) {
	switch {
	case res.outcome == OutcomeFallback:
		log.Warn("batch replaced with placeholder content",
			"kind", res.kind,
			"batch", res.index,
			"reason", res.reason,
			"duration_ms", res.elapsed.Milliseconds())
	case res.repaired > 0:
		log.Warn("batch contained malformed rows",
			"kind", res.kind,
			"batch", res.index,
			"rows", len(res.rows),
			"repaired_rows", res.repaired)
	default:
		log.Debug("batch completed",
			"kind", res.kind,
			"batch", res.index,
			"rows", len(res.rows),
			"duration_ms", res.elapsed.Milliseconds())
	}
}

// orderBatches leaves completion order alone unless submission order is
// requested.
func orderBatches(batches []batchResult, order MergeOrder) {
	if order != MergeBySubmission {
		return
	}
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].index < batches[j].index
	})
}

// assemble concatenates the rows of kind, then truncates or pads to
// TargetCount.
func assemble(kind Kind, batches []batchResult) [][]string {
	rows := make([][]string, 0, TargetCount)
	for _, b := range batches {
		if b.kind == kind {
			rows = append(rows, b.rows...)
		}
	}
	if len(rows) > TargetCount {
		rows = rows[:TargetCount]
	}
	for len(rows) < TargetCount {
		rows = append(rows, defaultRow(kind))
	}
	return rows
}

func toVerses(rows [][]string) []Verse {
	verses := make([]Verse, len(rows))
	for i, r := range rows {
		verses[i] = Verse{
			ID:        ItemID(KindVerse, i+1),
			VerseItem: VerseItem{Text: r[0], Explanation: r[1], Reference: r[2]},
		}
	}
	return verses
}

func toPrayers(rows [][]string) []Prayer {
	prayers := make([]Prayer, len(rows))
	for i, r := range rows {
		prayers[i] = Prayer{
			ID:         ItemID(KindPrayer, i+1),
			PrayerItem: PrayerItem{Title: r[0], Body: r[1]},
		}
	}
	return prayers
}
