package imagefield

import (
	"context"
	"sync"
	"sync/atomic"
)

// CallbackChangeToken is a ChangeToken that supports active callbacks.
// Drivers with native events (local) signal it from their event loop.
type CallbackChangeToken struct {
	mu        sync.RWMutex
	changed   atomic.Bool
	callbacks []func()
}

// NewCallbackChangeToken creates a new ChangeToken that supports active callbacks.
func NewCallbackChangeToken() *CallbackChangeToken {
	return &CallbackChangeToken{}
}

func (t *CallbackChangeToken) HasChanged() bool {
	return t.changed.Load()
}

func (t *CallbackChangeToken) ActiveChangeCallbacks() bool {
	return true
}

func (t *CallbackChangeToken) RegisterChangeCallback(callback func()) (unregister func()) {
	t.mu.Lock()
	t.callbacks = append(t.callbacks, callback)
	index := len(t.callbacks) - 1
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if index < len(t.callbacks) {
			// nil out rather than remove so other indexes stay valid
			t.callbacks[index] = nil
		}
	}
}

// SignalChange marks the token as changed and invokes all callbacks once.
func (t *CallbackChangeToken) SignalChange() {
	if t.changed.Swap(true) {
		return
	}

	t.mu.RLock()
	callbacks := make([]func(), len(t.callbacks))
	copy(callbacks, t.callbacks)
	t.mu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb()
		}
	}
}

// OnChange keeps watching until ctx is cancelled: every time the current
// token fires, changeAction runs and a fresh token is produced.
// It blocks; run it in its own goroutine if needed.
//
//	err := imagefield.OnChange(ctx,
//	    func() (imagefield.ChangeToken, error) {
//	        return fs.(imagefield.CanWatch).Watch(ctx, "uploads/*")
//	    },
//	    func() { revalidate() },
//	)
func OnChange(ctx context.Context, tokenProducer func() (ChangeToken, error), changeAction func()) error {
	for {
		token, err := tokenProducer()
		if err != nil {
			return err
		}

		done := make(chan struct{})
		var once sync.Once
		unregister := token.RegisterChangeCallback(func() {
			once.Do(func() { close(done) })
		})
		// the change may have landed before the callback was registered
		if token.HasChanged() {
			once.Do(func() { close(done) })
		}

		select {
		case <-ctx.Done():
			unregister()
			return ctx.Err()
		case <-done:
			unregister()
			changeAction()
		}
	}
}
