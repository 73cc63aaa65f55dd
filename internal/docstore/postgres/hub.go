package postgres

import (
	"context"
	"sync"

	"github.com/kababistan/orderhub/internal/docstore"
)

// snapshotFunc re-runs a subscription's query against the database.
type snapshotFunc func(collection string, q docstore.Query) ([]docstore.Document, error)

// hub fans mutation notifications out to subscriptions. Each subscriber gets
// a one-slot channel with stale-snapshot coalescing, so writers and the
// notify goroutine never block on consumers.
type hub struct {
	snapshot snapshotFunc

	mu   sync.Mutex
	subs map[*hubSub]struct{}
}

type hubSub struct {
	collection string
	query      docstore.Query
	ch         chan []docstore.Document
}

func newHub(snapshot snapshotFunc) *hub {
	return &hub{
		snapshot: snapshot,
		subs:     make(map[*hubSub]struct{}),
	}
}

func (h *hub) subscribe(ctx context.Context, collection string, q docstore.Query) (*docstore.Subscription, error) {
	snap, err := h.snapshot(collection, q)
	if err != nil {
		return nil, err
	}

	s := &hubSub{
		collection: collection,
		query:      q,
		ch:         make(chan []docstore.Document, 1),
	}
	s.ch <- snap

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			close(s.ch)
			h.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()

	return &docstore.Subscription{C: s.ch, Stop: stop}, nil
}

// notify refreshes every subscription of the collection. Query errors drop
// the snapshot delivery; the next mutation retries.
func (h *hub) notify(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		if s.collection != collection {
			continue
		}
		snap, err := h.snapshot(s.collection, s.query)
		if err != nil {
			continue
		}
		s.push(snap)
	}
}

func (s *hubSub) push(snap []docstore.Document) {
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
