package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store used by tests and local development. Writers
// never block on subscribers: each subscription has a one-slot buffer and
// stale snapshots are replaced by newer ones.
type Memory struct {
	mu   sync.Mutex
	cols map[string]map[string]Document
	subs map[*memSub]struct{}
}

type memSub struct {
	collection string
	query      Query
	ch         chan []Document
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cols: make(map[string]map[string]Document),
		subs: make(map[*memSub]struct{}),
	}
}

// Set stores the document, replacing any existing one.
func (m *Memory) Set(_ context.Context, collection, id string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	col, ok := m.cols[collection]
	if !ok {
		col = make(map[string]Document)
		m.cols[collection] = col
	}
	col[id] = doc.Clone()
	m.notifyLocked(collection)
	return nil
}

// Update merges fields into an existing document. Returns ErrNotFound when
// the document does not exist.
func (m *Memory) Update(_ context.Context, collection, id string, fields Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.cols[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	m.notifyLocked(collection)
	return nil
}

// Delete removes a document. Returns ErrNotFound when it does not exist.
func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cols[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.cols[collection], id)
	m.notifyLocked(collection)
	return nil
}

// Get returns a copy of the document, or ErrNotFound.
func (m *Memory) Get(_ context.Context, collection, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.cols[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

// Query returns the matching documents of a collection, ordered per q.
func (m *Memory) Query(_ context.Context, collection string, q Query) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queryLocked(collection, q), nil
}

// Subscribe registers a snapshot feed for the query. The current snapshot is
// delivered immediately; ctx cancellation is equivalent to Stop.
func (m *Memory) Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &memSub{
		collection: collection,
		query:      q,
		ch:         make(chan []Document, 1),
	}
	m.subs[s] = struct{}{}
	s.push(m.queryLocked(collection, q))

	var once sync.Once
	stop := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, s)
			close(s.ch)
			m.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()

	return &Subscription{C: s.ch, Stop: stop}, nil
}

// notifyLocked pushes fresh snapshots to every subscriber of the collection.
func (m *Memory) notifyLocked(collection string) {
	for s := range m.subs {
		if s.collection == collection {
			s.push(m.queryLocked(collection, s.query))
		}
	}
}

// push delivers a snapshot without blocking, dropping the stale one if the
// consumer has not caught up.
func (s *memSub) push(snap []Document) {
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

func (m *Memory) queryLocked(collection string, q Query) []Document {
	var out []Document
	for _, doc := range m.cols[collection] {
		if q.FilterField != "" && fmt.Sprint(doc[q.FilterField]) != q.FilterValue {
			continue
		}
		out = append(out, doc.Clone())
	}
	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			less := fieldLess(out[i][q.OrderBy], out[j][q.OrderBy])
			if q.Descending {
				return fieldLess(out[j][q.OrderBy], out[i][q.OrderBy])
			}
			return less
		})
	}
	return out
}

// fieldLess orders the numeric and string field types documents carry.
func fieldLess(a, b any) bool {
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			return av < bv
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	}
	return false
}
