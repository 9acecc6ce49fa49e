package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/dmarquez/catalogkeeper/internal/gateway"
	pkgerrors "github.com/dmarquez/catalogkeeper/pkg/errors"
	"github.com/dmarquez/catalogkeeper/pkg/validators"
)

// Product is a catalog entry as the store tracks it. Local and Updated are
// provenance flags: the remote sandbox does not durably persist writes, so
// entities created or updated in this session are marked as locally owned.
type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Brand       string          `json:"brand,omitempty"`
	Category    string          `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description,omitempty"`
	Rating      float64         `json:"rating,omitempty"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	Images      []string        `json:"images,omitempty"`
	Local       bool            `json:"isLocal,omitempty"`
	Updated     bool            `json:"isUpdated,omitempty"`
}

// CreateDraft is the validated payload for a new product.
type CreateDraft struct {
	Title       string          `json:"title" validate:"required"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Description string          `json:"description"`
}

func (d CreateDraft) validate() error {
	if err := validators.Check(d); err != nil {
		return err
	}
	if d.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"price": "must be at least 0"})
	}
	return nil
}

func (d CreateDraft) payload() gateway.DraftPayload {
	title := d.Title
	stock := d.Stock
	price := d.Price
	payload := gateway.DraftPayload{
		Title: &title,
		Price: &price,
		Stock: &stock,
	}
	if d.Brand != "" {
		brand := d.Brand
		payload.Brand = &brand
	}
	if d.Category != "" {
		category := d.Category
		payload.Category = &category
	}
	if d.Description != "" {
		description := d.Description
		payload.Description = &description
	}
	return payload
}

// UpdateDraft carries only the fields the caller wants changed; nil fields
// are neither sent nor touched locally.
type UpdateDraft struct {
	Title       *string          `json:"title,omitempty"`
	Brand       *string          `json:"brand,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Description *string          `json:"description,omitempty"`
}

func (d UpdateDraft) validate() error {
	details := map[string]string{}
	if d.Title != nil && *d.Title == "" {
		details["title"] = "is required"
	}
	if d.Price != nil && d.Price.IsNegative() {
		details["price"] = "must be at least 0"
	}
	if d.Stock != nil && *d.Stock < 0 {
		details["stock"] = "must be at least 0"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return nil
}

func (d UpdateDraft) payload() gateway.DraftPayload {
	return gateway.DraftPayload{
		Title:       d.Title,
		Brand:       d.Brand,
		Category:    d.Category,
		Price:       d.Price,
		Stock:       d.Stock,
		Description: d.Description,
	}
}

// State is a read-only snapshot of the catalog store.
type State struct {
	Products []Product
	Total    int
	Loading  bool
	Err      string
}

// fromWire maps a fetched product onto the store's shape.
func fromWire(w gateway.Product) Product {
	return Product{
		ID:          w.ID,
		Title:       w.Title,
		Brand:       w.Brand,
		Category:    w.Category,
		Price:       w.Price,
		Stock:       w.Stock,
		Description: w.Description,
		Rating:      w.Rating,
		Thumbnail:   w.Thumbnail,
		Images:      w.Images,
	}
}

// overlay applies the non-nil fields of a write acknowledgment onto the
// product. The id is never taken from the patch: creates echo a placeholder
// and updates must not rewrite locally arbitrated identity.
func (p *Product) overlay(patch *gateway.ProductPatch) {
	if patch == nil {
		return
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Rating != nil {
		p.Rating = *patch.Rating
	}
	if patch.Thumbnail != nil {
		p.Thumbnail = *patch.Thumbnail
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
}
