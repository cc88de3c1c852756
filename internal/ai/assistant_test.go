package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) complete(ctx context.Context, message string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newTestAssistant(c completer, enabled bool) *Assistant {
	return &Assistant{
		completer: c,
		enabled:   enabled,
		logger:    zap.NewNop(),
		intn:      func(n int) int { return 0 },
	}
}

func TestAssistant_Chat(t *testing.T) {
	fake := &fakeCompleter{reply: "Try a triadic scheme around your accent color."}
	a := newTestAssistant(fake, true)

	reply := a.Chat(context.Background(), "how do I pick an accent color?")
	assert.Equal(t, "Try a triadic scheme around your accent color.", reply)
	assert.Equal(t, 1, fake.calls)
}

func TestAssistant_Chat_Disabled(t *testing.T) {
	fake := &fakeCompleter{reply: "should never be used"}
	a := newTestAssistant(fake, false)

	reply := a.Chat(context.Background(), "hello")
	assert.Equal(t, fallbackResponses[0], reply)
	assert.Zero(t, fake.calls)
}

func TestAssistant_Chat_ErrorFallsBack(t *testing.T) {
	fake := &fakeCompleter{err: errors.New("api unreachable")}
	a := newTestAssistant(fake, true)

	reply := a.Chat(context.Background(), "hello")
	assert.Equal(t, fallbackResponses[0], reply)
}

func TestAssistant_Chat_EmptyReply(t *testing.T) {
	fake := &fakeCompleter{reply: ""}
	a := newTestAssistant(fake, true)

	reply := a.Chat(context.Background(), "hello")
	assert.NotEmpty(t, reply)
	assert.NotEqual(t, fallbackResponses[0], reply)
}
