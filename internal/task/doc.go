// Package task runs units of work on a fixed pool of worker goroutines fed by
// a bounded queue. The verse and prayer aggregator submits its generation
// batches here, so the number of concurrent calls to the AI backend is
// capped by the pool size no matter how many requests arrive at once.
package task
