package faucet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// limitWindow is the rolling period the drip quota applies to.
const limitWindow = 24 * time.Hour

// ErrLimitReached is returned once the quota for the current window is used
// up.
var ErrLimitReached = errors.New("faucet limit reached, try again later")

type limitState struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"resetAt"`
}

// Limiter enforces a per-window drip quota, persisted to a small JSON file
// so restarts don't reset it.
type Limiter struct {
	mu    sync.Mutex
	path  string
	max   int
	state limitState

	// now is replaceable in tests
	now func() time.Time
}

// OpenLimiter loads the persisted window state, starting fresh when the
// file doesn't exist yet.
func OpenLimiter(path string, max int) (*Limiter, error) {
	l := &Limiter{path: path, max: max, now: time.Now}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit state: %w", err)
	}
	if err := json.Unmarshal(data, &l.state); err != nil {
		return nil, fmt.Errorf("failed to parse rate limit state: %w", err)
	}
	return l, nil
}

// Take consumes one drip from the quota and returns how many remain, or
// ErrLimitReached. The window starts at the first drip after a reset.
func (l *Limiter) Take() (remaining int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !l.state.ResetAt.IsZero() && now.After(l.state.ResetAt) {
		l.state = limitState{}
	}
	if l.state.Count >= l.max {
		return 0, ErrLimitReached
	}

	if l.state.Count == 0 {
		l.state.ResetAt = now.Add(limitWindow)
	}
	l.state.Count++

	if err := l.persist(); err != nil {
		return 0, err
	}
	return l.max - l.state.Count, nil
}

// Remaining reports the unused quota without consuming any.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.ResetAt.IsZero() && l.now().After(l.state.ResetAt) {
		return l.max
	}
	return l.max - l.state.Count
}

func (l *Limiter) persist() error {
	data, err := json.Marshal(l.state)
	if err != nil {
		return fmt.Errorf("failed to encode rate limit state: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write rate limit state: %w", err)
	}
	return nil
}
