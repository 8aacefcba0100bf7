package tx

import (
	"context"
	"sync"
)

type commitHooksKey struct{}

// CommitHooks collects work bound to the end of the outermost transaction:
// before-commit hooks run inside it and can still fail it, after-commit hooks
// run once it is durable.
type CommitHooks struct {
	mu     sync.Mutex
	before []func(ctx context.Context) error
	keys   map[string]bool
	after  []func(ctx context.Context)
}

// WithCommitHooks attaches an empty hook list to ctx. Managers call it when
// they open an outermost transaction.
func WithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	h := &CommitHooks{keys: map[string]bool{}}
	return context.WithValue(ctx, commitHooksKey{}, h), h
}

func hooksFrom(ctx context.Context) *CommitHooks {
	h, _ := ctx.Value(commitHooksKey{}).(*CommitHooks)
	return h
}

// BeforeCommit defers fn to the end of the transaction carried by ctx. A
// non-empty key registers fn at most once per transaction. With no
// transaction in ctx, fn runs immediately.
func BeforeCommit(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	h := hooksFrom(ctx)
	if h == nil {
		return fn(ctx)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if key != "" {
		if h.keys[key] {
			return nil
		}
		h.keys[key] = true
	}
	h.before = append(h.before, fn)
	return nil
}

// AfterCommit defers fn until the transaction carried by ctx commits. With
// no transaction in ctx, fn runs immediately. Hooks are dropped on rollback.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	h := hooksFrom(ctx)
	if h == nil {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.after = append(h.after, fn)
	h.mu.Unlock()
}

// RunBeforeCommit executes before-commit hooks in registration order,
// including hooks they register themselves. txCtx is the transaction's ctx.
func (h *CommitHooks) RunBeforeCommit(txCtx context.Context) error {
	for {
		h.mu.Lock()
		fns := h.before
		h.before = nil
		h.mu.Unlock()
		if len(fns) == 0 {
			return nil
		}
		for _, fn := range fns {
			if err := fn(txCtx); err != nil {
				return err
			}
		}
	}
}

// Run executes the after-commit hooks in registration order. ctx should not
// carry the finished transaction.
func (h *CommitHooks) Run(ctx context.Context) {
	h.mu.Lock()
	fns := h.after
	h.after = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}
