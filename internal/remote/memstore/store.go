// Package memstore is an in-process remote.Store. Every write marks the
// matching live queries dirty; each subscription goroutine then pushes a
// fresh snapshot, so callbacks arrive asynchronously like they do from the
// hosted database.
package memstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"padaria/internal/remote"

	"github.com/google/uuid"
)

type record struct {
	id     string
	fields map[string]any
}

type Store struct {
	mu       sync.Mutex
	data     map[string][]record
	subs     map[*subscription]struct{}
	failures []error
	closed   bool
}

func New() *Store {
	return &Store{
		data: make(map[string][]record),
		subs: make(map[*subscription]struct{}),
	}
}

// FailNextWrites makes the next len(errs) writes return the given errors in
// order.
func (s *Store) FailNextWrites(errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, errs...)
}

func (s *Store) Get(ctx context.Context, q remote.Query) ([]remote.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, remote.ErrClosed
	}
	return s.query(q), nil
}

func (s *Store) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginWrite(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	s.data[collection] = append(s.data[collection], record{id: id, fields: cloneMap(fields)})
	s.notify(collection)
	return id, nil
}

func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginWrite(); err != nil {
		return err
	}

	i := s.indexOf(collection, id)
	if i < 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}
	for k, v := range fields {
		s.data[collection][i].fields[k] = cloneValue(v)
	}
	s.notify(collection)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.beginWrite(); err != nil {
		return err
	}

	i := s.indexOf(collection, id)
	if i < 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, remote.ErrNotFound)
	}
	records := s.data[collection]
	s.data[collection] = append(records[:i], records[i+1:]...)
	s.notify(collection)
	return nil
}

// Subscribe starts a live query. The subscription outlives ctx; only Cancel
// or Close ends it.
func (s *Store) Subscribe(ctx context.Context, q remote.Query, fn remote.SnapshotFunc) (remote.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub := &subscription{
		store:  s,
		query:  q,
		fn:     fn,
		dirty:  make(chan struct{}, 1),
		ctx:    subCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, remote.ErrClosed
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	sub.dirty <- struct{}{}
	go sub.run()

	return sub, nil
}

// Close cancels every live query.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

// Subscribers returns the number of live queries, for tests.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) beginWrite() error {
	if s.closed {
		return remote.ErrClosed
	}
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		return err
	}
	return nil
}

func (s *Store) indexOf(collection, id string) int {
	for i, r := range s.data[collection] {
		if r.id == id {
			return i
		}
	}
	return -1
}

func (s *Store) notify(collection string) {
	for sub := range s.subs {
		if sub.query.Collection != collection {
			continue
		}
		select {
		case sub.dirty <- struct{}{}:
		default:
		}
	}
}

func (s *Store) query(q remote.Query) []remote.Document {
	var docs []remote.Document
	for _, r := range s.data[q.Collection] {
		if !matches(r.fields, q.Where) {
			continue
		}
		docs = append(docs, remote.Document{ID: r.id, Fields: cloneMap(r.fields)})
	}

	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			return less(docs[i].Fields[q.OrderBy], docs[j].Fields[q.OrderBy])
		})
	}
	return docs
}

type subscription struct {
	store  *Store
	query  remote.Query
	fn     remote.SnapshotFunc
	dirty  chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (sub *subscription) run() {
	defer close(sub.done)

	for {
		select {
		case <-sub.ctx.Done():
			return
		case <-sub.dirty:
			sub.store.mu.Lock()
			docs := sub.store.query(sub.query)
			sub.store.mu.Unlock()

			if sub.ctx.Err() != nil {
				return
			}
			sub.fn(docs, nil)
		}
	}
}

func (sub *subscription) Cancel() {
	sub.once.Do(func() {
		sub.cancel()
		<-sub.done

		sub.store.mu.Lock()
		delete(sub.store.subs, sub)
		sub.store.mu.Unlock()
	})
}

func matches(fields, where map[string]any) bool {
	for k, want := range where {
		got, ok := fields[k]
		if !ok || !equal(got, want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	af, aok := number(a)
	bf, bok := number(b)
	if aok && bok {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

func less(a, b any) bool {
	af, aok := number(a)
	bf, bok := number(b)
	if aok && bok {
		return af < bf
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs
	}
	// documents missing the sort field go first
	return a == nil && b != nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = cloneMap(m)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, el := range t {
			out[i] = cloneValue(el)
		}
		return out
	}
	return v
}
