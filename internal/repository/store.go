package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrExists   = errors.New("record already exists")
	// ErrConflict means a record touched by the transaction changed before
	// commit. The whole transaction must be re-run against fresh state.
	ErrConflict = errors.New("write conflict")

	errBlindWrite = errors.New("record written without being read in the transaction")
)

// Store is the transactional document store behind the ledger. RunInTx makes
// exactly one optimistic attempt; retrying on ErrConflict is the caller's job.
// The Get/List reads are not transactional and must not drive mutations.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAuction(ctx context.Context, id string) (*model.Auction, error)
	ListDueAuctions(ctx context.Context, now time.Time, limit int) ([]*model.Auction, error)
	ListSettledAuctions(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Tx reads and writes records inside one optimistic transaction. A record
// must be read (or inserted) in the transaction before it can be put or
// deleted; the version observed at that read is what commit validates.
type Tx interface {
	Account(ctx context.Context, id string) (*model.Account, error)
	InsertAccount(ctx context.Context, a *model.Account) error
	PutAccount(ctx context.Context, a *model.Account) error

	CatalogItem(ctx context.Context, id string) (*model.CatalogItem, error)
	InsertCatalogItem(ctx context.Context, item *model.CatalogItem) error

	RedemptionCode(ctx context.Context, code string) (*model.RedemptionCode, error)
	InsertRedemptionCode(ctx context.Context, c *model.RedemptionCode) error
	PutRedemptionCode(ctx context.Context, c *model.RedemptionCode) error

	Auction(ctx context.Context, id string) (*model.Auction, error)
	InsertAuction(ctx context.Context, a *model.Auction) error
	PutAuction(ctx context.Context, a *model.Auction) error
	DeleteAuction(ctx context.Context, id string) error
}

const (
	collAccounts = "accounts"
	collCatalog  = "catalog_items"
	collCodes    = "redemption_codes"
	collAuctions = "auctions"
)

// docMeta carries the indexed columns stored next to an auction document.
type docMeta struct {
	EndTime time.Time
	Status  string
}

// docTx is the raw document layer each backend provides.
type docTx interface {
	get(ctx context.Context, coll, id string) ([]byte, error)
	insert(ctx context.Context, coll, id string, doc []byte, meta docMeta) error
	put(ctx context.Context, coll, id string, doc []byte, meta docMeta) error
	del(ctx context.Context, coll, id string) error
}

// typedTx implements Tx over a docTx by encoding records as JSON documents.
type typedTx struct {
	docs docTx
}

func getJSON(ctx context.Context, d docTx, coll, id string, v any) error {
	data, err := d.get(ctx, coll, id)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", coll, id, err)
	}
	return nil
}

func encode(coll, id string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", coll, id, err)
	}
	return data, nil
}

func (t *typedTx) Account(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	if err := getJSON(ctx, t.docs, collAccounts, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *typedTx) InsertAccount(ctx context.Context, a *model.Account) error {
	data, err := encode(collAccounts, a.ID, a)
	if err != nil {
		return err
	}
	return t.docs.insert(ctx, collAccounts, a.ID, data, docMeta{})
}

func (t *typedTx) PutAccount(ctx context.Context, a *model.Account) error {
	a.Revision++
	data, err := encode(collAccounts, a.ID, a)
	if err != nil {
		return err
	}
	return t.docs.put(ctx, collAccounts, a.ID, data, docMeta{})
}

func (t *typedTx) CatalogItem(ctx context.Context, id string) (*model.CatalogItem, error) {
	var item model.CatalogItem
	if err := getJSON(ctx, t.docs, collCatalog, id, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (t *typedTx) InsertCatalogItem(ctx context.Context, item *model.CatalogItem) error {
	data, err := encode(collCatalog, item.ID, item)
	if err != nil {
		return err
	}
	return t.docs.insert(ctx, collCatalog, item.ID, data, docMeta{})
}

func (t *typedTx) RedemptionCode(ctx context.Context, code string) (*model.RedemptionCode, error) {
	var c model.RedemptionCode
	if err := getJSON(ctx, t.docs, collCodes, code, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *typedTx) InsertRedemptionCode(ctx context.Context, c *model.RedemptionCode) error {
	data, err := encode(collCodes, c.Code, c)
	if err != nil {
		return err
	}
	return t.docs.insert(ctx, collCodes, c.Code, data, docMeta{})
}

func (t *typedTx) PutRedemptionCode(ctx context.Context, c *model.RedemptionCode) error {
	data, err := encode(collCodes, c.Code, c)
	if err != nil {
		return err
	}
	return t.docs.put(ctx, collCodes, c.Code, data, docMeta{})
}

func (t *typedTx) Auction(ctx context.Context, id string) (*model.Auction, error) {
	var a model.Auction
	if err := getJSON(ctx, t.docs, collAuctions, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func auctionMeta(a *model.Auction) docMeta {
	return docMeta{EndTime: a.EndTime, Status: string(a.Status)}
}

func (t *typedTx) InsertAuction(ctx context.Context, a *model.Auction) error {
	data, err := encode(collAuctions, a.ID, a)
	if err != nil {
		return err
	}
	return t.docs.insert(ctx, collAuctions, a.ID, data, auctionMeta(a))
}

func (t *typedTx) PutAuction(ctx context.Context, a *model.Auction) error {
	data, err := encode(collAuctions, a.ID, a)
	if err != nil {
		return err
	}
	return t.docs.put(ctx, collAuctions, a.ID, data, auctionMeta(a))
}

func (t *typedTx) DeleteAuction(ctx context.Context, id string) error {
	return t.docs.del(ctx, collAuctions, id)
}
