package models

import "github.com/shopspring/decimal"

// Item represents a catalog item
type Item struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	Name      string          `json:"name" gorm:"size:120;not null"`
	Brand     string          `json:"brand" gorm:"size:120;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	Available bool            `json:"available" gorm:"not null;default:true"`
}

// CreateItemRequest represents the request to add an item to the catalog.
// Price is a pointer so a missing price can be told apart from zero.
type CreateItemRequest struct {
	Name      string           `json:"name" binding:"required"`
	Brand     string           `json:"brand" binding:"required"`
	Price     *decimal.Decimal `json:"price"`
	Available *bool            `json:"available"`
}

// UpdateItemRequest carries a partial item update
type UpdateItemRequest struct {
	Name      *string          `json:"name"`
	Brand     *string          `json:"brand"`
	Price     *decimal.Decimal `json:"price"`
	Available *bool            `json:"available"`
}

// Empty reports whether the request changes nothing
func (r UpdateItemRequest) Empty() bool {
	return isBlank(r.Name) && isBlank(r.Brand) && r.Price == nil && r.Available == nil
}

// ItemResponse wraps a single item
type ItemResponse struct {
	Success    bool  `json:"success"`
	StatusCode int   `json:"status_code"`
	Item       *Item `json:"item"`
}

// ItemListResponse wraps the catalog listing
type ItemListResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Items      []Item `json:"items"`
	Total      int    `json:"total"`
}

// DeleteItemResponse reports a deleted item and how many remain
type DeleteItemResponse struct {
	Success        bool   `json:"success"`
	StatusCode     int    `json:"status_code"`
	DeletedItem    string `json:"deleted_item"`
	RemainingItems int64  `json:"num_of_remaining_items"`
}

// Money columns are numeric(12,2): two decimal places, ten integer digits
const MoneyScale = 2

var moneyLimit = decimal.New(1, 12-MoneyScale)

// MoneyFits reports whether d can be stored in a money column without
// rounding or overflow
func MoneyFits(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale)) && d.Abs().LessThan(moneyLimit)
}
