// Package chat answers free-form Bible questions and prayer requests with a
// single completion call under a fixed Bible-assistant system prompt.
package chat
