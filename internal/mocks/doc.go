// Package mocks provides centralized mock implementations of the generation
// ports for testing.
//
// Each mock has a function field per interface method. When the field is nil
// the mock returns its default values. Every call is recorded so tests can
// verify what the code under test sent to the AI backend:
//
//	completer := &mocks.MockCompleter{
//	    CompleteFn: func(ctx context.Context, req generation.CompletionRequest) (*generation.CompletionResponse, error) {
//	        return &generation.CompletionResponse{Text: "Grace and peace."}, nil
//	    },
//	}
//
// Mocks are safe for concurrent use, which the verse aggregator tests rely on.
package mocks
