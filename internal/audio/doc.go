// Package audio turns text into downloadable MP3 clips.
//
// Service synthesizes speech through a generation.Synthesizer and keeps the
// resulting bytes in a Store under a fresh UUID. Clips are short-lived: the
// in-memory store expires them after a TTL, and the NATS object store relies
// on the bucket TTL.
package audio
