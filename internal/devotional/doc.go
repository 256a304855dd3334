// Package devotional assembles the daily devotional feed: fifteen Bible
// verses and fifteen prayers generated by an external completion backend.
//
// Generation is split into six independent batches of five items, three per
// kind, that run concurrently on a task.WorkerPool. A batch whose output
// cannot be parsed is replaced with placeholder content rather than failing
// the request, and a kind that comes up short is padded with a canonical
// default item. Only a hard backend failure, such as a network or
// authentication error, fails the whole call.
package devotional
