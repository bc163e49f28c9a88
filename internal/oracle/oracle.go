// Package oracle defines the external decision oracle consumed by the
// oracle-driven contestant. The oracle is an opaque text-in text-out
// collaborator; replies are parsed defensively and never trusted.
package oracle

import "context"

// Oracle is a single-call chat interface to an external decision model.
type Oracle interface {
	// Chat submits a prompt with a system prompt and returns the raw reply
	// text. The reply is untyped; callers parse it defensively.
	Chat(ctx context.Context, prompt string, systemPrompt string) (string, error)
}
