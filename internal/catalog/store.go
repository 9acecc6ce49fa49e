// Package catalog owns the product collection and reconciles it against a
// remote sandbox that neither persists writes nor returns usable ids for
// creates. The store is the source of truth for the session's view: every
// mutation applies its own result locally instead of re-fetching.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmarquez/catalogkeeper/internal/gateway"
	"github.com/dmarquez/catalogkeeper/internal/ident"
	pkgerrors "github.com/dmarquez/catalogkeeper/pkg/errors"
	"github.com/dmarquez/catalogkeeper/pkg/logger"
)

type gatewayClient interface {
	ListProducts(ctx context.Context) (*gateway.ProductPage, error)
	CreateProduct(ctx context.Context, draft gateway.DraftPayload) (*gateway.ProductPatch, error)
	UpdateProduct(ctx context.Context, id int64, draft gateway.DraftPayload) (*gateway.ProductPatch, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// Store is the catalog state container. Operations are blocking and safe for
// concurrent use; overlapping completions apply in settlement order, except
// stale fetches, which are discarded by sequence.
type Store struct {
	mu       sync.Mutex
	products []Product
	total    int
	loading  bool
	err      string

	// fetch sequencing: a list completion older than the last applied one
	// must not clobber newer data.
	fetchSeq     uint64
	fetchApplied uint64

	gateway gatewayClient
	ids     *ident.Generator
	logger  *logger.Logger
}

// StoreParams bundles the dependencies required to build a catalog store.
type StoreParams struct {
	Gateway gatewayClient
	Logger  *logger.Logger
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("gateway client is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{
		gateway: params.Gateway,
		ids:     ident.NewGenerator(),
		logger:  params.Logger,
	}, nil
}

// FetchAll replaces the collection wholesale with the remote page and takes
// the total the gateway reports, which may exceed the page length.
func (s *Store) FetchAll(ctx context.Context) error {
	ctx = s.logger.WithOperation(ctx, "fetch_products")

	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	page, err := s.gateway.ListProducts(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if seq < s.fetchApplied {
		// A newer fetch already settled; this result is stale either way.
		s.logger.Warn(ctx, "discarding stale fetch completion")
		return nil
	}

	if err != nil {
		s.err = pkgerrors.UserMessage(err)
		return err
	}

	s.fetchApplied = seq
	s.products = make([]Product, len(page.Products))
	for i, wire := range page.Products {
		s.products[i] = fromWire(wire)
	}
	s.total = page.Total

	s.logger.Info(s.logger.WithField(ctx, "count", len(s.products)), "products fetched")
	return nil
}

// Create submits the draft and inserts the accepted entity at the front of
// the collection under a locally arbitrated id. The placeholder id the
// sandbox echoes is discarded; the total is recomputed from the collection
// so earlier failed attempts cannot skew it.
func (s *Store) Create(ctx context.Context, draft CreateDraft) (*Product, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	ctx = s.logger.WithOperation(ctx, "add_product")

	s.beginMutation()
	patch, err := s.gateway.CreateProduct(ctx, draft.payload())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.err = pkgerrors.UserMessage(err)
		return nil, err
	}

	product := Product{
		Title:       draft.Title,
		Brand:       draft.Brand,
		Category:    draft.Category,
		Price:       draft.Price,
		Stock:       draft.Stock,
		Description: draft.Description,
	}
	product.overlay(patch)
	product.ID = s.ids.Next()
	product.Local = true
	product.Thumbnail = ""
	product.Images = []string{}

	s.products = append([]Product{product}, s.products...)
	s.total = len(s.products)

	s.logger.Info(s.logger.WithField(ctx, "product_id", product.ID), "product added")
	result := product
	return &result, nil
}

// Update overlays the acknowledged fields onto the matching local entity,
// retaining anything the response omits. A result for an id the store does
// not hold is discarded with a warning, not an error.
func (s *Store) Update(ctx context.Context, id int64, draft UpdateDraft) (*Product, error) {
	if err := draft.validate(); err != nil {
		return nil, err
	}
	ctx = s.logger.WithOperation(ctx, "update_product")

	s.beginMutation()
	patch, err := s.gateway.UpdateProduct(ctx, id, draft.payload())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.err = pkgerrors.UserMessage(err)
		return nil, err
	}

	index := s.indexOf(id)
	if index < 0 {
		s.logger.Warn(s.logger.WithField(ctx, "product_id", id), "update result references a product not held locally, discarding")
		return nil, nil
	}

	product := s.products[index]
	product.overlay(patch)
	product.ID = id
	product.Updated = true
	s.products[index] = product

	s.logger.Info(s.logger.WithField(ctx, "product_id", id), "product updated")
	result := product
	return &result, nil
}

// Delete removes the entity after the gateway acknowledges, recomputing the
// total from the remaining collection.
func (s *Store) Delete(ctx context.Context, id int64) error {
	ctx = s.logger.WithOperation(ctx, "delete_product")

	s.beginMutation()
	err := s.gateway.DeleteProduct(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.err = pkgerrors.UserMessage(err)
		return err
	}

	index := s.indexOf(id)
	if index < 0 {
		s.logger.Warn(s.logger.WithField(ctx, "product_id", id), "delete acknowledged for a product not held locally")
		return nil
	}

	s.products = append(s.products[:index], s.products[index+1:]...)
	s.total = len(s.products)

	s.logger.Info(s.logger.WithField(ctx, "product_id", id), "product deleted")
	return nil
}

// ClearError resets the error field without touching the collection.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
}

// Snapshot returns a copy of the current state; the products slice is cloned
// so callers never alias store-owned memory.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	products := make([]Product, len(s.products))
	copy(products, s.products)
	return State{
		Products: products,
		Total:    s.total,
		Loading:  s.loading,
		Err:      s.err,
	}
}

func (s *Store) beginMutation() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

// indexOf must be called with the mutex held.
func (s *Store) indexOf(id int64) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}
