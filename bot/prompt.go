package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"voicecreate/bot/common"
)

// errPromptReplaced is returned to a waiter superseded by a newer prompt for
// the same member and channel
var errPromptReplaced = errors.New("prompt replaced by a newer one")

type promptKey struct {
	channelID int64
	userID    int64
}

type promptWaiter struct {
	replies chan string
	done    chan struct{}
}

// PromptWaiter hands the next message a member sends in a channel to whoever
// is waiting on it. Unanswered prompts expire after the timeout.
type PromptWaiter struct {
	timeout time.Duration

	mu      sync.Mutex
	waiters map[promptKey]*promptWaiter
}

func NewPromptWaiter(timeout time.Duration) *PromptWaiter {
	return &PromptWaiter{
		timeout: timeout,
		waiters: make(map[promptKey]*promptWaiter),
	}
}

// Wait blocks until the member replies, the timeout passes or ctx ends
func (p *PromptWaiter) Wait(ctx context.Context, channelID, userID int64) (string, error) {
	key := promptKey{channelID: channelID, userID: userID}
	w := &promptWaiter{
		replies: make(chan string, 1),
		done:    make(chan struct{}),
	}

	p.mu.Lock()
	if previous, ok := p.waiters[key]; ok {
		close(previous.done)
	}
	p.waiters[key] = w
	p.mu.Unlock()

	defer p.remove(key, w)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case reply := <-w.replies:
		return reply, nil
	case <-w.done:
		return "", errPromptReplaced
	case <-timer.C:
		return "", common.ErrPromptTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (p *PromptWaiter) remove(key promptKey, w *promptWaiter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.waiters[key] == w {
		delete(p.waiters, key)
	}
}

// Deliver passes content to a pending prompt and reports whether one was waiting
func (p *PromptWaiter) Deliver(channelID, userID int64, content string) bool {
	key := promptKey{channelID: channelID, userID: userID}

	p.mu.Lock()
	w, ok := p.waiters[key]
	if ok {
		delete(p.waiters, key)
	}
	p.mu.Unlock()

	if !ok {
		return false
	}
	w.replies <- content
	return true
}

// Pending returns the number of open prompts
func (p *PromptWaiter) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}
