package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmarquez/catalogkeeper/internal/gateway"
	pkgerrors "github.com/dmarquez/catalogkeeper/pkg/errors"
	"github.com/dmarquez/catalogkeeper/pkg/logger"
)

// funcGateway lets each test script the remote behavior per operation.
type funcGateway struct {
	list   func(ctx context.Context) (*gateway.ProductPage, error)
	create func(ctx context.Context, draft gateway.DraftPayload) (*gateway.ProductPatch, error)
	update func(ctx context.Context, id int64, draft gateway.DraftPayload) (*gateway.ProductPatch, error)
	delete func(ctx context.Context, id int64) error
}

func (f *funcGateway) ListProducts(ctx context.Context) (*gateway.ProductPage, error) {
	return f.list(ctx)
}

func (f *funcGateway) CreateProduct(ctx context.Context, draft gateway.DraftPayload) (*gateway.ProductPatch, error) {
	return f.create(ctx, draft)
}

func (f *funcGateway) UpdateProduct(ctx context.Context, id int64, draft gateway.DraftPayload) (*gateway.ProductPatch, error) {
	return f.update(ctx, id, draft)
}

func (f *funcGateway) DeleteProduct(ctx context.Context, id int64) error {
	return f.delete(ctx, id)
}

func testStore(t *testing.T, gw gatewayClient) *Store {
	t.Helper()
	store, err := NewStore(StoreParams{
		Gateway: gw,
		Logger:  logger.New(logger.Options{ServiceName: "catalog-test", Level: logger.ParseLevel("error")}),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

// placeholderCreate acknowledges every create with the sandbox's fixed id.
func placeholderCreate(_ context.Context, draft gateway.DraftPayload) (*gateway.ProductPatch, error) {
	placeholder := int64(101)
	return &gateway.ProductPatch{ID: &placeholder, Title: draft.Title}, nil
}

func wireProduct(id int64, title string, stock int) gateway.Product {
	return gateway.Product{
		ID:    id,
		Title: title,
		Price: decimal.NewFromInt(10),
		Stock: stock,
	}
}

func TestFetchAllReplacesWholesale(t *testing.T) {
	gw := &funcGateway{
		list: func(context.Context) (*gateway.ProductPage, error) {
			return &gateway.ProductPage{
				Products: []gateway.Product{wireProduct(1, "P1", 5), wireProduct(2, "P2", 3)},
				Total:    10,
			}, nil
		},
		create: placeholderCreate,
	}
	store := testStore(t, gw)

	// Seed prior contents so the replacement is observable.
	if _, err := store.Create(context.Background(), CreateDraft{Title: "Stale"}); err != nil {
		t.Fatalf("seed create: %v", err)
	}

	if err := store.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	state := store.Snapshot()
	if len(state.Products) != 2 {
		t.Fatalf("expected wholesale replacement, got %d products", len(state.Products))
	}
	if state.Products[0].ID != 1 || state.Products[1].ID != 2 {
		t.Fatalf("unexpected products %+v", state.Products)
	}
	if state.Total != 10 {
		t.Fatalf("total must come from the gateway, got %d", state.Total)
	}
	if state.Loading {
		t.Fatalf("loading must clear at settlement")
	}
}

func TestFetchAllFailureLeavesCollectionUntouched(t *testing.T) {
	failing := false
	gw := &funcGateway{
		list: func(context.Context) (*gateway.ProductPage, error) {
			if failing {
				return nil, pkgerrors.New(pkgerrors.CodeGateway, "upstream exploded")
			}
			return &gateway.ProductPage{Products: []gateway.Product{wireProduct(1, "P1", 5)}, Total: 1}, nil
		},
	}
	store := testStore(t, gw)

	if err := store.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	failing = true
	if err := store.FetchAll(context.Background()); err == nil {
		t.Fatal("expected fetch failure")
	}

	state := store.Snapshot()
	if len(state.Products) != 1 {
		t.Fatalf("failure must not touch the collection, got %d products", len(state.Products))
	}
	if state.Err != "upstream exploded" {
		t.Fatalf("expected remote message verbatim, got %q", state.Err)
	}
}

func TestCreateAssignsDistinctLocalIDs(t *testing.T) {
	gw := &funcGateway{create: placeholderCreate}
	store := testStore(t, gw)

	titles := []string{"First", "Second", "Third"}
	for _, title := range titles {
		if _, err := store.Create(context.Background(), CreateDraft{Title: title}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	state := store.Snapshot()
	if len(state.Products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(state.Products))
	}

	seen := map[int64]bool{}
	for _, product := range state.Products {
		if product.ID == 101 {
			t.Fatalf("placeholder id must be discarded: %+v", product)
		}
		if seen[product.ID] {
			t.Fatalf("duplicate id %d", product.ID)
		}
		seen[product.ID] = true
		if !product.Local {
			t.Fatalf("created products must carry the local flag: %+v", product)
		}
		if product.Images == nil || len(product.Images) != 0 || product.Thumbnail != "" {
			t.Fatalf("display metadata must default empty: %+v", product)
		}
	}

	// Newest first.
	if state.Products[0].Title != "Third" {
		t.Fatalf("expected front insertion, got %+v", state.Products)
	}
	if state.Total != 3 {
		t.Fatalf("total must equal collection length, got %d", state.Total)
	}
}

func TestCreateFailureDoesNotSkewTotal(t *testing.T) {
	var fail atomic.Bool
	gw := &funcGateway{
		create: func(ctx context.Context, draft gateway.DraftPayload) (*gateway.ProductPatch, error) {
			if fail.Load() {
				return nil, pkgerrors.New(pkgerrors.CodeGateway, "Failed to add product")
			}
			return placeholderCreate(ctx, draft)
		},
	}
	store := testStore(t, gw)

	fail.Store(true)
	if _, err := store.Create(context.Background(), CreateDraft{Title: "Doomed"}); err == nil {
		t.Fatal("expected create failure")
	}
	state := store.Snapshot()
	if len(state.Products) != 0 || state.Total != 0 {
		t.Fatalf("failed create must not touch the collection: %+v", state)
	}
	if state.Err != "Failed to add product" {
		t.Fatalf("unexpected error %q", state.Err)
	}

	fail.Store(false)
	if _, err := store.Create(context.Background(), CreateDraft{Title: "Kept"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	state = store.Snapshot()
	if state.Total != 1 || state.Total != len(state.Products) {
		t.Fatalf("total must be recomputed from the collection: %+v", state)
	}
	if state.Err != "" {
		t.Fatalf("a fresh dispatch must clear the previous error, got %q", state.Err)
	}
}

func TestCreateValidatesDraft(t *testing.T) {
	called := false
	gw := &funcGateway{
		create: func(ctx context.Context, draft gateway.DraftPayload) (*gateway.ProductPatch, error) {
			called = true
			return placeholderCreate(ctx, draft)
		},
	}
	store := testStore(t, gw)

	cases := []CreateDraft{
		{},
		{Title: "Negative price", Price: decimal.NewFromInt(-1)},
		{Title: "Negative stock", Stock: -1},
	}
	for _, draft := range cases {
		_, err := store.Create(context.Background(), draft)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", draft, err)
		}
	}
	if called {
		t.Fatal("invalid drafts must never reach the gateway")
	}
	if state := store.Snapshot(); state.Err != "" {
		t.Fatalf("validation failures resolve at the boundary, store err=%q", state.Err)
	}
}

func TestUpdateMergesInsteadOfReplacing(t *testing.T) {
	gw := &funcGateway{
		list: func(context.Context) (*gateway.ProductPage, error) {
			product := wireProduct(1, "A", 5)
			product.Brand = "Acme"
			return &gateway.ProductPage{Products: []gateway.Product{product}, Total: 1}, nil
		},
		update: func(_ context.Context, id int64, draft gateway.DraftPayload) (*gateway.ProductPatch, error) {
			// The sandbox echoes only the fields it accepted.
			return &gateway.ProductPatch{ID: &id, Title: draft.Title}, nil
		},
	}
	store := testStore(t, gw)
	if err := store.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	title := "B"
	updated, err := store.Update(context.Background(), 1, UpdateDraft{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated product")
	}

	if updated.Title != "B" {
		t.Fatalf("expected new title, got %q", updated.Title)
	}
	if updated.Stock != 5 || updated.Brand != "Acme" {
		t.Fatalf("omitted fields must be retained: %+v", updated)
	}
	if updated.ID != 1 {
		t.Fatalf("id must be preserved, got %d", updated.ID)
	}
	if !updated.Updated {
		t.Fatalf("expected the updated provenance flag: %+v", updated)
	}

	state := store.Snapshot()
	if state.Products[0].Title != "B" || state.Products[0].Stock != 5 {
		t.Fatalf("store copy must reflect the merge: %+v", state.Products[0])
	}
}

func TestUpdateForUnknownIDIsDiscarded(t *testing.T) {
	gw := &funcGateway{
		update: func(_ context.Context, id int64, draft gateway.DraftPayload) (*gateway.ProductPatch, error) {
			return &gateway.ProductPatch{ID: &id, Title: draft.Title}, nil
		},
	}
	store := testStore(t, gw)

	title := "Ghost"
	updated, err := store.Update(context.Background(), 42, UpdateDraft{Title: &title})
	if err != nil {
		t.Fatalf("a missing local entity is a warning, not an error: %v", err)
	}
	if updated != nil {
		t.Fatalf("expected discarded result, got %+v", updated)
	}
	if state := store.Snapshot(); state.Err != "" {
		t.Fatalf("consistency warnings must not surface as errors, got %q", state.Err)
	}
}

func TestUpdateFailureSetsError(t *testing.T) {
	gw := &funcGateway{
		list: func(context.Context) (*gateway.ProductPage, error) {
			return &gateway.ProductPage{Products: []gateway.Product{wireProduct(1, "A", 5)}, Total: 1}, nil
		},
		update: func(context.Context, int64, gateway.DraftPayload) (*gateway.ProductPatch, error) {
			return nil, pkgerrors.New(pkgerrors.CodeGateway, "Failed to update product")
		},
	}
	store := testStore(t, gw)
	if err := store.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	title := "B"
	if _, err := store.Update(context.Background(), 1, UpdateDraft{Title: &title}); err == nil {
		t.Fatal("expected update failure")
	}
	state := store.Snapshot()
	if state.Products[0].Title != "A" {
		t.Fatalf("failed update must not touch the entity: %+v", state.Products[0])
	}
	if state.Err != "Failed to update product" {
		t.Fatalf("unexpected error %q", state.Err)
	}
}

func TestDeleteRemovesAndRecomputesTotal(t *testing.T) {
	gw := &funcGateway{
		list: func(context.Context) (*gateway.ProductPage, error) {
			return &gateway.ProductPage{
				Products: []gateway.Product{wireProduct(1, "A", 1), wireProduct(2, "B", 2)},
				Total:    100,
			}, nil
		},
		delete: func(context.Context, int64) error { return nil },
	}
	store := testStore(t, gw)
	if err := store.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := store.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	state := store.Snapshot()
	if len(state.Products) != 1 || state.Products[0].ID != 2 {
		t.Fatalf("unexpected products %+v", state.Products)
	}
	if state.Total != 1 {
		t.Fatalf("total must be recomputed after delete, got %d", state.Total)
	}

	// Deleting an id the store no longer holds warns but does not error.
	if err := store.Delete(context.Background(), 1); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestDeleteFailureLeavesCollectionUntouched(t *testing.T) {
	gw := &funcGateway{
		list: func(context.Context) (*gateway.ProductPage, error) {
			return &gateway.ProductPage{Products: []gateway.Product{wireProduct(1, "A", 1)}, Total: 1}, nil
		},
		delete: func(context.Context, int64) error {
			return pkgerrors.New(pkgerrors.CodeGateway, "Failed to delete product")
		},
	}
	store := testStore(t, gw)
	if err := store.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if err := store.Delete(context.Background(), 1); err == nil {
		t.Fatal("expected delete failure")
	}
	state := store.Snapshot()
	if len(state.Products) != 1 || state.Total != 1 {
		t.Fatalf("failed delete must not touch the collection: %+v", state)
	}
	if state.Err != "Failed to delete product" {
		t.Fatalf("unexpected error %q", state.Err)
	}
}

func TestClearError(t *testing.T) {
	gw := &funcGateway{
		list: func(context.Context) (*gateway.ProductPage, error) {
			return nil, pkgerrors.New(pkgerrors.CodeGateway, "boom")
		},
	}
	store := testStore(t, gw)
	_ = store.FetchAll(context.Background())

	if state := store.Snapshot(); state.Err == "" {
		t.Fatal("expected error to be set")
	}
	store.ClearError()
	if state := store.Snapshot(); state.Err != "" {
		t.Fatalf("expected error cleared, got %q", state.Err)
	}
}

func TestStaleFetchCompletionIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int64
	gw := &funcGateway{
		list: func(context.Context) (*gateway.ProductPage, error) {
			if calls.Add(1) == 1 {
				// First fetch holds until the second has settled.
				<-release
				return &gateway.ProductPage{Products: []gateway.Product{wireProduct(1, "old", 0)}, Total: 1}, nil
			}
			return &gateway.ProductPage{Products: []gateway.Product{wireProduct(2, "new", 0)}, Total: 1}, nil
		},
	}
	store := testStore(t, gw)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = store.FetchAll(context.Background())
	}()

	// Wait until the slow fetch is in flight, then run the fast one.
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := store.FetchAll(context.Background()); err != nil {
		t.Fatalf("fast fetch: %v", err)
	}

	close(release)
	wg.Wait()

	state := store.Snapshot()
	if len(state.Products) != 1 || state.Products[0].Title != "new" {
		t.Fatalf("stale completion clobbered newer data: %+v", state.Products)
	}
}

func TestSnapshotDoesNotAliasStoreMemory(t *testing.T) {
	gw := &funcGateway{
		list: func(context.Context) (*gateway.ProductPage, error) {
			return &gateway.ProductPage{Products: []gateway.Product{wireProduct(1, "A", 1)}, Total: 1}, nil
		},
	}
	store := testStore(t, gw)
	if err := store.FetchAll(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	state := store.Snapshot()
	state.Products[0].Title = "mutated"

	if fresh := store.Snapshot(); fresh.Products[0].Title != "A" {
		t.Fatalf("snapshot mutation leaked into the store: %+v", fresh.Products[0])
	}
}

func TestTotalTracksCollectionThroughMutations(t *testing.T) {
	gw := &funcGateway{
		create: placeholderCreate,
		delete: func(context.Context, int64) error { return nil },
	}
	store := testStore(t, gw)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 4; i++ {
		product, err := store.Create(ctx, CreateDraft{Title: "P"})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, product.ID)
	}
	if err := store.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, ids[3]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	state := store.Snapshot()
	if state.Total != len(state.Products) {
		t.Fatalf("total %d diverged from collection length %d", state.Total, len(state.Products))
	}
	if state.Total != 2 {
		t.Fatalf("expected 2 remaining products, got %d", state.Total)
	}
}
