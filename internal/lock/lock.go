// Package lock serializes money-moving operations that touch the same
// records. Keys name entities ("day:2026-03-14", "sale:<id>"); operations on
// disjoint keys proceed in parallel.
package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"galla/backend/internal/store"
)

type Locker interface {
	// Acquire holds every key until the returned release is called. Keys are
	// taken in sorted order so overlapping callers cannot deadlock. When ctx
	// ends first the error wraps store.ErrConflict.
	Acquire(ctx context.Context, keys ...string) (func(), error)
}

func normalize(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type entry struct {
	sem  chan struct{}
	refs int
}

// Local is an in-process keyed mutex.
type Local struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewLocal() *Local {
	return &Local{entries: make(map[string]*entry)}
}

func (l *Local) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Local) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *Local) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]string, 0, len(keys))
	heldEntries := make([]*entry, 0, len(keys))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-heldEntries[i].sem
			l.unref(held[i], heldEntries[i])
		}
	}

	for _, key := range keys {
		e := l.ref(key)
		select {
		case e.sem <- struct{}{}:
			held = append(held, key)
			heldEntries = append(heldEntries, e)
		case <-ctx.Done():
			l.unref(key, e)
			release()
			return nil, fmt.Errorf("%w: waiting for %s: %v", store.ErrConflict, key, ctx.Err())
		}
	}

	return releaseOnce(release), nil
}

// releaseOnce makes a release safe to call more than once.
func releaseOnce(release func()) func() {
	var once sync.Once
	return func() { once.Do(release) }
}

func DayKey(day string) string {
	return "day:" + day
}

func SaleKey(id string) string {
	return "sale:" + id
}

func DueKey(id string) string {
	return "due:" + id
}
