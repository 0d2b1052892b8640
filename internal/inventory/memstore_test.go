package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/coffee-inventory/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
)

// memStore is an in-memory Store whose transactions stage writes and apply
// them on commit. LockBatch holds a per-row mutex until the transaction ends,
// mirroring SELECT ... FOR UPDATE.
type memStore struct {
	mu         sync.Mutex
	orders     map[int64]orders.Status
	batches    map[string]Batch
	movements  []Movement
	items      map[string]orders.Item
	transports []Transport
	rowLocks   map[string]*sync.Mutex

	failUpsert error
	commits    int
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[int64]orders.Status{},
		batches:  map[string]Batch{},
		items:    map[string]orders.Item{},
		rowLocks: map[string]*sync.Mutex{},
	}
}

func batchKey(kind Kind, n string) string    { return string(kind) + ":" + n }
func itemKey(orderID int64, n string) string { return fmt.Sprintf("%d:%s", orderID, n) }

func (s *memStore) addOrder(id int64, st orders.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id] = st
}

func (s *memStore) addBatch(kind Kind, n string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batchKey(kind, n)] = Batch{Kind: kind, BatchNumber: n, Status: StatusAvailable, UpdatedAt: time.Unix(0, 0).UTC()}
}

func (s *memStore) batch(kind Kind, n string) Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[batchKey(kind, n)]
}

func (s *memStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

func (s *memStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx := &memTx{s: s, batches: map[string]Batch{}, held: map[string]*sync.Mutex{}}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, b := range tx.batches {
		s.batches[k] = b
	}
	s.movements = append(s.movements, tx.movements...)
	for _, it := range tx.items {
		s.items[itemKey(it.OrderID, it.BatchNumber)] = it
	}
	s.transports = append(s.transports, tx.transports...)
	s.commits++
	return nil
}

func (s *memStore) GetBatch(ctx context.Context, kind Kind, n string) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[batchKey(kind, n)]
	if !ok {
		return Batch{}, ErrBatchNotFound
	}
	return b, nil
}

func (s *memStore) ListBatches(ctx context.Context, kind Kind, status Status) ([]Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Batch
	for _, b := range s.batches {
		if b.Kind != kind {
			continue
		}
		if (status == "" && b.ExitedAt == nil) || (status != "" && b.Status == status) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchNumber < out[j].BatchNumber })
	return out, nil
}

func (s *memStore) Movements(ctx context.Context, kind Kind, n string) ([]Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Movement
	for _, m := range s.movements {
		if m.Kind == kind && m.BatchNumber == n {
			out = append(out, m)
		}
	}
	return out, nil
}

type memTx struct {
	s          *memStore
	held       map[string]*sync.Mutex
	batches    map[string]Batch
	movements  []Movement
	items      []orders.Item
	transports []Transport
}

func (t *memTx) release() {
	for _, l := range t.held {
		l.Unlock()
	}
}

func (t *memTx) OrderStatus(ctx context.Context, id int64) (orders.Status, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	st, ok := t.s.orders[id]
	if !ok {
		return "", ErrOrderNotFound
	}
	return st, nil
}

func (t *memTx) LockBatch(ctx context.Context, kind Kind, n string) (Batch, error) {
	k := batchKey(kind, n)
	if _, ok := t.held[k]; !ok {
		t.s.mu.Lock()
		l, ok := t.s.rowLocks[k]
		if !ok {
			l = &sync.Mutex{}
			t.s.rowLocks[k] = l
		}
		t.s.mu.Unlock()
		l.Lock()
		t.held[k] = l
	}
	b, ok := t.view(k)
	if !ok {
		return Batch{}, ErrBatchNotFound
	}
	return b, nil
}

func (t *memTx) view(k string) (Batch, bool) {
	if b, ok := t.batches[k]; ok {
		return b, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	b, ok := t.s.batches[k]
	return b, ok
}

func (t *memTx) SetStatus(ctx context.Context, tr Transition) error {
	k := batchKey(tr.Kind, tr.BatchNumber)
	b, ok := t.view(k)
	if !ok || b.ExitedAt != nil || b.Status != tr.From {
		return errStaleBatch
	}
	orderID := tr.OrderID
	switch tr.To {
	case StatusReserved:
		b.OrderID = &orderID
	case StatusPicked:
		if b.OrderID == nil || *b.OrderID != tr.OrderID {
			return errStaleBatch
		}
		at := tr.At
		b.ExitedAt = &at
	}
	b.Status, b.UpdatedBy, b.UpdatedAt = tr.To, tr.UpdatedBy, tr.At
	t.batches[k] = b
	return nil
}

func (t *memTx) AppendMovement(ctx context.Context, m Movement) error {
	t.movements = append(t.movements, m)
	return nil
}

func (t *memTx) UpsertOrderItem(ctx context.Context, it orders.Item) error {
	if t.s.failUpsert != nil {
		return t.s.failUpsert
	}
	t.items = append(t.items, it)
	return nil
}

func (t *memTx) InsertTransport(ctx context.Context, tr Transport) error {
	t.transports = append(t.transports, tr)
	return nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (p *recordingPublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, kafkago.Message{Key: key, Value: value, Headers: headers})
}

// memCache implements ProjectorCache over a map of raw JSON values.
type memCache struct {
	mu      sync.Mutex
	values  map[string][]byte
	ttls    map[string]time.Duration
	deletes []string
}

func newMemCache() *memCache {
	return &memCache{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = b
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
		c.deletes = append(c.deletes, k)
	}
	return nil
}

func (c *memCache) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = []byte("1")
	return true, nil
}
