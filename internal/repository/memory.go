package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

// MemoryStore is an in-process Store with per-record versions. Transactions
// buffer their writes and validate every version they observed at commit,
// so it exhibits the same conflict behaviour as the Postgres store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]memDoc
}

// memDoc is a stored record. Deleted records stay behind as tombstones so a
// key re-created later continues from the old version instead of reusing it.
type memDoc struct {
	data    []byte
	version int64
	deleted bool
}

type docKey struct {
	coll string
	id   string
}

type writeOp int

const (
	opPut writeOp = iota
	opInsert
	opDelete
)

type memWrite struct {
	data []byte
	op   writeOp
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]memDoc)}
}

func (s *MemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mt := &memTx{
		s:      s,
		reads:  make(map[docKey]memRead),
		writes: make(map[docKey]*memWrite),
	}
	if err := fn(ctx, &typedTx{docs: mt}); err != nil {
		return err
	}
	return mt.commit()
}

// lookup returns the record under id, reporting false for missing and
// deleted records. The returned version is valid either way.
func (s *MemoryStore) lookup(coll, id string) (memDoc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[coll][id]
	return d, ok && !d.deleted
}

func (s *MemoryStore) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	d, ok := s.lookup(collAccounts, id)
	if !ok {
		return nil, ErrNotFound
	}
	var a model.Account
	if err := json.Unmarshal(d.data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *MemoryStore) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	d, ok := s.lookup(collAuctions, id)
	if !ok {
		return nil, ErrNotFound
	}
	var a model.Auction
	if err := json.Unmarshal(d.data, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *MemoryStore) auctions() ([]*model.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Auction, 0, len(s.docs[collAuctions]))
	for _, d := range s.docs[collAuctions] {
		if d.deleted {
			continue
		}
		var a model.Auction
		if err := json.Unmarshal(d.data, &a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EndTime.Equal(out[j].EndTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].EndTime.Before(out[j].EndTime)
	})
	return out, nil
}

func (s *MemoryStore) ListDueAuctions(ctx context.Context, now time.Time, limit int) ([]*model.Auction, error) {
	all, err := s.auctions()
	if err != nil {
		return nil, err
	}
	var due []*model.Auction
	for _, a := range all {
		if a.Status == model.AuctionStatusOpen && !a.EndTime.After(now) {
			due = append(due, a)
			if limit > 0 && len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

func (s *MemoryStore) ListSettledAuctions(ctx context.Context) ([]string, error) {
	all, err := s.auctions()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, a := range all {
		if a.Status == model.AuctionStatusSettled {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

type memRead struct {
	version int64
	present bool
}

type memTx struct {
	s      *MemoryStore
	reads  map[docKey]memRead
	writes map[docKey]*memWrite
}

func (t *memTx) observe(k docKey) (memDoc, bool) {
	d, ok := t.s.lookup(k.coll, k.id)
	if _, seen := t.reads[k]; !seen {
		t.reads[k] = memRead{version: d.version, present: ok}
	}
	return d, ok
}

func (t *memTx) get(ctx context.Context, coll, id string) ([]byte, error) {
	k := docKey{coll, id}
	if w, ok := t.writes[k]; ok {
		if w.op == opDelete {
			return nil, ErrNotFound
		}
		return w.data, nil
	}
	d, ok := t.observe(k)
	if !ok {
		return nil, ErrNotFound
	}
	return d.data, nil
}

func (t *memTx) insert(ctx context.Context, coll, id string, doc []byte, _ docMeta) error {
	k := docKey{coll, id}
	if w, ok := t.writes[k]; ok && w.op != opDelete {
		return ErrExists
	}
	if _, ok := t.observe(k); ok {
		return ErrExists
	}
	t.writes[k] = &memWrite{data: doc, op: opInsert}
	return nil
}

func (t *memTx) put(ctx context.Context, coll, id string, doc []byte, _ docMeta) error {
	k := docKey{coll, id}
	if w, ok := t.writes[k]; ok && w.op == opInsert {
		w.data = doc
		return nil
	}
	if r, seen := t.reads[k]; !seen || !r.present {
		return errBlindWrite
	}
	t.writes[k] = &memWrite{data: doc, op: opPut}
	return nil
}

func (t *memTx) del(ctx context.Context, coll, id string) error {
	k := docKey{coll, id}
	if w, ok := t.writes[k]; ok && w.op == opInsert {
		delete(t.writes, k)
		return nil
	}
	if r, seen := t.reads[k]; !seen || !r.present {
		return errBlindWrite
	}
	t.writes[k] = &memWrite{op: opDelete}
	return nil
}

func (t *memTx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for k, r := range t.reads {
		if t.s.docs[k.coll][k.id].version != r.version {
			return ErrConflict
		}
	}

	for k, w := range t.writes {
		coll := t.s.docs[k.coll]
		if coll == nil {
			coll = make(map[string]memDoc)
			t.s.docs[k.coll] = coll
		}
		next := coll[k.id].version + 1
		if w.op == opDelete {
			coll[k.id] = memDoc{version: next, deleted: true}
			continue
		}
		coll[k.id] = memDoc{data: w.data, version: next}
	}
	return nil
}
