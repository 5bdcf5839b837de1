package domain

import "context"

// ChatModel is the language-model completion contract: rendered prompt in,
// raw answer text out. No post-processing happens on either side.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
