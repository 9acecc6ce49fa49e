package gateway

import "github.com/shopspring/decimal"

// Product is the wire shape of a catalog entry as the remote API reports it.
type Product struct {
	ID                 int64           `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discountPercentage"`
	Rating             float64         `json:"rating"`
	Stock              int             `json:"stock"`
	Brand              string          `json:"brand"`
	Category           string          `json:"category"`
	Thumbnail          string          `json:"thumbnail"`
	Images             []string        `json:"images"`
}

// ProductPage is the list response. Total counts the remote collection and
// may exceed the page actually returned.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// ProductPatch is a partial product as echoed by the write endpoints. The
// sandbox only returns the fields it accepted, so everything is optional;
// callers overlay non-nil fields onto their own copy.
type ProductPatch struct {
	ID          *int64           `json:"id"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Rating      *float64         `json:"rating"`
	Stock       *int             `json:"stock"`
	Brand       *string          `json:"brand"`
	Category    *string          `json:"category"`
	Thumbnail   *string          `json:"thumbnail"`
	Images      *[]string        `json:"images"`
}

// DraftPayload is the request body for create and update calls. Unset fields
// are omitted so updates only touch what the caller changed.
type DraftPayload struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Brand       *string          `json:"brand,omitempty"`
	Category    *string          `json:"category,omitempty"`
}
