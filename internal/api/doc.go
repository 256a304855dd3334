// Package api handles incoming HTTP requests, request validation and
// response formatting. It adapts the devotional, chat, speech and audio
// services to JSON over HTTP and maps their errors to status codes.
package api
