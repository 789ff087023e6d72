// Package tokens estimates prompt sizes so the snapshot collector can stay
// inside the model's context window.
package tokens

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counter counts tokens with a tiktoken codec. Counts are an estimate for
// non-OpenAI models, which is fine for budgeting.
type Counter struct {
	once  sync.Once
	codec tokenizer.Codec
	err   error
}

// NewCounter creates a counter using the o200k_base encoding.
func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) init() {
	c.codec, c.err = tokenizer.Get(tokenizer.O200kBase)
}

// Count returns the token count for text. If the codec is unavailable it
// falls back to a bytes/4 heuristic rather than failing the run.
func (c *Counter) Count(text string) int {
	c.once.Do(c.init)
	if c.err != nil {
		return len(text) / 4
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}
