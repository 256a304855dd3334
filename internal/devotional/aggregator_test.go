package devotional

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilisasu/bibleai-api/internal/generation"
	"github.com/vilisasu/bibleai-api/internal/mocks"
	"github.com/vilisasu/bibleai-api/internal/platform/logger"
	"github.com/vilisasu/bibleai-api/internal/task"
)

func newTestAggregator(t *testing.T, completer generation.Completer, cfg Config, opts ...Option) *Aggregator {
	t.Helper()

	log, _ := logger.GetTestLogger(t)
	runner := task.NewTaskRunner(task.TaskRunnerConfig{WorkerCount: 2 * BatchesPerKind, QueueSize: 12}, log)
	runner.Start()
	t.Cleanup(runner.Stop)

	agg, err := NewAggregator(completer, runner, cfg, log, opts...)
	require.NoError(t, err)
	return agg
}

func isVerseRequest(req generation.CompletionRequest) bool {
	return req.SystemPrompt == verseSystemPrompt
}

func verseJSON(n int, tag string) string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{
			fmt.Sprintf("%s verse %d", tag, i+1),
			fmt.Sprintf("%s meaning %d", tag, i+1),
			fmt.Sprintf("%s 1:%d (ESV)", tag, i+1),
		}
	}
	b, _ := json.Marshal(rows)
	return string(b)
}

func prayerJSON(n int, tag string) string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{
			fmt.Sprintf("%s prayer %d", tag, i+1),
			fmt.Sprintf("Lord, %s %d. Amen.", tag, i+1),
		}
	}
	b, _ := json.Marshal(rows)
	return string(b)
}

// respond answers verse and prayer requests with the given texts.
func respond(verse, prayer string) *mocks.MockCompleter {
	return &mocks.MockCompleter{
		CompleteFn: func(_ context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error) {
			if isVerseRequest(req) {
				return &generation.CompletionResponse{Text: verse}, nil
			}
			return &generation.CompletionResponse{Text: prayer}, nil
		},
	}
}

func assertShape(t *testing.T, result *AggregateResult) {
	t.Helper()

	require.NotNil(t, result)
	require.Len(t, result.Verses, TargetCount)
	require.Len(t, result.Prayers, TargetCount)

	for i, v := range result.Verses {
		assert.Equal(t, fmt.Sprintf("verse%02d", i+1), v.ID)
		assert.NotEmpty(t, v.Text)
		assert.NotEmpty(t, v.Explanation)
		assert.NotEmpty(t, v.Reference)
	}
	for i, p := range result.Prayers {
		assert.Equal(t, fmt.Sprintf("prayer%02d", i+1), p.ID)
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Body)
	}
}

func countVerses(result *AggregateResult, match func(Verse) bool) int {
	n := 0
	for _, v := range result.Verses {
		if match(v) {
			n++
		}
	}
	return n
}

func countPrayers(result *AggregateResult, match func(Prayer) bool) int {
	n := 0
	for _, p := range result.Prayers {
		if match(p) {
			n++
		}
	}
	return n
}

func isFallbackVerse(v Verse) bool { return v.Reference == "Joshua 1:9 (NIV)" }
func isFallbackPrayer(p Prayer) bool {
	return strings.HasPrefix(p.Title, "A Prayer for Patience (reserve")
}

func TestProduce_FullResult(t *testing.T) {
	t.Parallel()

	completer := respond(verseJSON(5, "Gen"), prayerJSON(5, "Gen"))
	agg := newTestAggregator(t, completer, Config{})

	result, err := agg.Produce(context.Background())

	require.NoError(t, err)
	assertShape(t, result)
	assert.Equal(t, 6, completer.CallCount())
	assert.Zero(t, countVerses(result, isFallbackVerse))
	assert.Zero(t, countPrayers(result, isFallbackPrayer))
	assert.Equal(t, "Gen verse 1", result.Verses[0].Text)
	assert.Equal(t, "Gen prayer 5", result.Prayers[14].Title)

	ids := make(map[string]bool)
	for _, v := range result.Verses {
		ids[v.ID] = true
	}
	for _, p := range result.Prayers {
		ids[p.ID] = true
	}
	assert.Len(t, ids, 2*TargetCount, "identifiers must be unique")
}

func TestProduce_RequestParameters(t *testing.T) {
	t.Parallel()

	completer := respond(verseJSON(5, "Gen"), prayerJSON(5, "Gen"))
	agg := newTestAggregator(t, completer, Config{},
		WithRandSource(&sequenceRand{values: []int{0, 0, 99}}),
		WithClock(func() time.Time { return time.UnixMilli(5000) }))

	_, err := agg.Produce(context.Background())
	require.NoError(t, err)

	verses, prayers := 0, 0
	for _, req := range completer.Requests() {
		require.NoError(t, req.Validate())
		assert.InDelta(t, 1.2, req.Temperature, 1e-9)
		assert.InDelta(t, 0.95, req.TopP, 1e-9)
		assert.InDelta(t, 0.8, req.FrequencyPenalty, 1e-9)
		assert.InDelta(t, 0.8, req.PresencePenalty, 1e-9)
		assert.Contains(t, req.Messages[0].Content, "Random seed: 5100")
		assert.Contains(t, req.Messages[0].Content, "KJV and NIV")

		if isVerseRequest(req) {
			verses++
			assert.Equal(t, verseMaxTokens, req.MaxTokens)
		} else {
			prayers++
			assert.Equal(t, prayerSystemPrompt, req.SystemPrompt)
			assert.Equal(t, prayerMaxTokens, req.MaxTokens)
		}
	}
	assert.Equal(t, BatchesPerKind, verses)
	assert.Equal(t, BatchesPerKind, prayers)
}

func TestProduce_MalformedBatchFallsBack(t *testing.T) {
	t.Parallel()

	var verseCalls atomic.Int32
	completer := &mocks.MockCompleter{
		CompleteFn: func(_ context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error) {
			if isVerseRequest(req) {
				if verseCalls.Add(1) == 1 {
					return &generation.CompletionResponse{Text: "I'm sorry, here are some verses: John 1:1"}, nil
				}
				return &generation.CompletionResponse{Text: verseJSON(5, "Gen")}, nil
			}
			return &generation.CompletionResponse{Text: prayerJSON(5, "Gen")}, nil
		},
	}
	agg := newTestAggregator(t, completer, Config{})

	result, err := agg.Produce(context.Background())

	require.NoError(t, err)
	assertShape(t, result)
	assert.Equal(t, BatchSize, countVerses(result, isFallbackVerse))
	assert.Zero(t, countPrayers(result, isFallbackPrayer))
}

func TestProduce_AllBatchesMalformed(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, respond("not json", "```json\n{oops\n```"), Config{})

	result, err := agg.Produce(context.Background())

	require.NoError(t, err)
	assertShape(t, result)
	assert.Equal(t, TargetCount, countVerses(result, isFallbackVerse))
	assert.Equal(t, TargetCount, countPrayers(result, isFallbackPrayer))
}

func TestProduce_SoftBackendErrorsFallBack(t *testing.T) {
	t.Parallel()

	for _, softErr := range []error{generation.ErrContentBlocked, generation.ErrInvalidResponse} {
		t.Run(softErr.Error(), func(t *testing.T) {
			t.Parallel()

			agg := newTestAggregator(t, mocks.NewMockCompleterWithError(softErr), Config{})

			result, err := agg.Produce(context.Background())

			require.NoError(t, err)
			assertShape(t, result)
			assert.Equal(t, TargetCount, countVerses(result, isFallbackVerse))
			assert.Equal(t, TargetCount, countPrayers(result, isFallbackPrayer))
		})
	}
}

func TestProduce_BackendUnavailableIsHardError(t *testing.T) {
	t.Parallel()

	canceled := make(chan struct{}, BatchesPerKind)
	completer := &mocks.MockCompleter{
		CompleteFn: func(ctx context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error) {
			if isVerseRequest(req) {
				<-ctx.Done()
				canceled <- struct{}{}
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: dial tcp: connection refused", generation.ErrBackendUnavailable)
		},
	}
	agg := newTestAggregator(t, completer, Config{BatchTimeout: 5 * time.Second})

	result, err := agg.Produce(context.Background())

	require.Error(t, err)
	assert.Nil(t, result, "no partial assembly on hard failure")
	assert.ErrorIs(t, err, generation.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "prayer batch")

	for i := 0; i < BatchesPerKind; i++ {
		select {
		case <-canceled:
		case <-time.After(time.Second):
			t.Fatal("sibling batches were not canceled")
		}
	}
}

func TestProduce_BatchTimeoutFallsBack(t *testing.T) {
	t.Parallel()

	var prayerCalls atomic.Int32
	completer := &mocks.MockCompleter{
		CompleteFn: func(ctx context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error) {
			if isVerseRequest(req) {
				return &generation.CompletionResponse{Text: verseJSON(5, "Gen")}, nil
			}
			if prayerCalls.Add(1) == 1 {
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return &generation.CompletionResponse{Text: prayerJSON(5, "Gen")}, nil
		},
	}
	agg := newTestAggregator(t, completer, Config{BatchTimeout: 50 * time.Millisecond})

	result, err := agg.Produce(context.Background())

	require.NoError(t, err)
	assertShape(t, result)
	assert.Equal(t, BatchSize, countPrayers(result, isFallbackPrayer))
	assert.Zero(t, countVerses(result, isFallbackVerse))
}

func TestProduce_RunsBatchesInParallel(t *testing.T) {
	t.Parallel()

	const delay = 150 * time.Millisecond
	completer := &mocks.MockCompleter{
		CompleteFn: func(ctx context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error) {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if isVerseRequest(req) {
				return &generation.CompletionResponse{Text: verseJSON(5, "Gen")}, nil
			}
			return &generation.CompletionResponse{Text: prayerJSON(5, "Gen")}, nil
		},
	}
	agg := newTestAggregator(t, completer, Config{})

	start := time.Now()
	result, err := agg.Produce(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assertShape(t, result)
	assert.GreaterOrEqual(t, elapsed, delay)
	assert.Less(t, elapsed, 3*delay, "six batches should take about as long as the slowest one")
}

func TestProduce_ShortBatchesArePadded(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t,
		respond(`[["Test verse", "Test meaning", "Test 1:1"]]`, `[["Test title", "Test body"]]`),
		Config{})

	result, err := agg.Produce(context.Background())

	require.NoError(t, err)
	assertShape(t, result)

	for i := 0; i < BatchesPerKind; i++ {
		assert.Equal(t, VerseItem{Text: "Test verse", Explanation: "Test meaning", Reference: "Test 1:1"},
			result.Verses[i].VerseItem)
		assert.Equal(t, PrayerItem{Title: "Test title", Body: "Test body"}, result.Prayers[i].PrayerItem)
	}
	for i := BatchesPerKind; i < TargetCount; i++ {
		assert.Equal(t, DefaultVerse, result.Verses[i].VerseItem)
		assert.Equal(t, DefaultPrayer, result.Prayers[i].PrayerItem)
	}
	assert.Equal(t, DefaultVerse, result.Verses[TargetCount-1].VerseItem)
}

func TestProduce_OversizedBatchesAreTruncated(t *testing.T) {
	t.Parallel()

	agg := newTestAggregator(t, respond(verseJSON(7, "Big"), prayerJSON(7, "Big")), Config{})

	result, err := agg.Produce(context.Background())

	require.NoError(t, err)
	assertShape(t, result)
	for _, v := range result.Verses {
		assert.True(t, strings.HasPrefix(v.Text, "Big verse"))
	}
}

func TestProduce_MalformedRowsRepaired(t *testing.T) {
	t.Parallel()

	verses := `[["a","b","c"],["two","cells"],["d","e","f"],["g","h","i"],["j","k","l"]]`
	agg := newTestAggregator(t, respond(verses, prayerJSON(5, "Gen")), Config{})

	result, err := agg.Produce(context.Background())

	require.NoError(t, err)
	assertShape(t, result)
	assert.Equal(t, BatchesPerKind, countVerses(result, isFallbackVerse), "one repaired row per verse batch")
}

func TestProduce_QueueRejection(t *testing.T) {
	t.Parallel()

	queue := &rejectingQueue{accept: 2, err: fmt.Errorf("%w: queue capacity 2 reached", task.ErrQueueFull)}
	log, _ := logger.GetTestLogger(t)
	agg, err := NewAggregator(respond(verseJSON(5, "Gen"), prayerJSON(5, "Gen")), queue, Config{}, log)
	require.NoError(t, err)

	result, err := agg.Produce(context.Background())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, task.ErrQueueFull)
	assert.Contains(t, err.Error(), "failed to schedule verse batch 3")
	queue.wg.Wait()
}

func TestProduce_ContextCanceled(t *testing.T) {
	t.Parallel()

	completer := &mocks.MockCompleter{
		CompleteFn: func(ctx context.Context, _ generation.CompletionRequest) (*generation.CompletionResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	agg := newTestAggregator(t, completer, Config{BatchTimeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	result, err := agg.Produce(ctx)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProduce_RecordsOutcomes(t *testing.T) {
	t.Parallel()

	var verseCalls atomic.Int32
	completer := &mocks.MockCompleter{
		CompleteFn: func(_ context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error) {
			if isVerseRequest(req) && verseCalls.Add(1) == 1 {
				return &generation.CompletionResponse{Text: "???"}, nil
			}
			if isVerseRequest(req) {
				return &generation.CompletionResponse{Text: verseJSON(5, "Gen")}, nil
			}
			return &generation.CompletionResponse{Text: prayerJSON(5, "Gen")}, nil
		},
	}
	rec := &fakeRecorder{}
	agg := newTestAggregator(t, completer, Config{}, WithRecorder(rec))

	_, err := agg.Produce(context.Background())
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 2, rec.batches["verse/parsed"])
	assert.Equal(t, 1, rec.batches["verse/fallback"])
	assert.Equal(t, 3, rec.batches["prayer/parsed"])
	assert.Equal(t, []string{"success"}, rec.aggregates)
}

func TestOrderBatches(t *testing.T) {
	t.Parallel()

	completed := func() []batchResult {
		return []batchResult{
			{kind: KindVerse, index: 3},
			{kind: KindPrayer, index: 2},
			{kind: KindVerse, index: 1},
			{kind: KindVerse, index: 2},
		}
	}

	batches := completed()
	orderBatches(batches, MergeByCompletion)
	assert.Equal(t, completed(), batches)

	orderBatches(batches, MergeBySubmission)
	var verseOrder []int
	for _, b := range batches {
		if b.kind == KindVerse {
			verseOrder = append(verseOrder, b.index)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, verseOrder)
}

func TestNewAggregator(t *testing.T) {
	t.Parallel()

	completer := mocks.NewMockCompleterWithText("[]")
	queue := &rejectingQueue{}

	_, err := NewAggregator(nil, queue, Config{}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewAggregator(completer, nil, Config{}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	_, err = NewAggregator(completer, queue, Config{MergeOrder: "alphabetical"}, nil)
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)

	agg, err := NewAggregator(completer, queue, Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchTimeout, agg.config.BatchTimeout)
	assert.Equal(t, MergeByCompletion, agg.config.MergeOrder)
}

func TestItemID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "verse01", ItemID(KindVerse, 1))
	assert.Equal(t, "prayer15", ItemID(KindPrayer, 15))
}

// rejectingQueue runs the first accept tasks directly and refuses the rest.
type rejectingQueue struct {
	mu     sync.Mutex
	wg     sync.WaitGroup
	accept int
	taken  int
	err    error
}

func (q *rejectingQueue) Enqueue(t task.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.taken >= q.accept {
		return q.err
	}
	q.taken++
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		_ = t.Execute(context.Background())
	}()
	return nil
}

type fakeRecorder struct {
	mu         sync.Mutex
	batches    map[string]int
	aggregates []string
}

func (r *fakeRecorder) RecordBatch(_ context.Context, kind, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.batches == nil {
		r.batches = make(map[string]int)
	}
	r.batches[kind+"/"+outcome]++
}

func (r *fakeRecorder) RecordAggregate(_ context.Context, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aggregates = append(r.aggregates, outcome)
}
