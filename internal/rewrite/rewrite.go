// Package rewrite produces the "viral rewrite" draft for an analyzed note.
// Generation is currently a fixed-delay mock; the draft is canned rather
// than model-generated.
package rewrite

import (
	"context"
	"fmt"
	"time"

	"insight-cli/internal/model"
)

const mockDelay = 1500 * time.Millisecond

// Generator yields rewrite suggestions.
type Generator struct {
	delay time.Duration
}

func New() *Generator {
	return &Generator{delay: mockDelay}
}

// NewWithDelay exists for tests that cannot afford the production delay.
func NewWithDelay(delay time.Duration) *Generator {
	return &Generator{delay: delay}
}

// Suggest returns a rewrite draft for the note after the generation delay.
// Cancelling the context aborts the wait.
func (g *Generator) Suggest(ctx context.Context, note model.NoteData) (string, error) {
	select {
	case <-time.After(g.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return fmt.Sprintf(
		"**Rewritten title: %s (viral edition)**\n\nA fresh draft generated from the structure of the original note...",
		note.Title,
	), nil
}
