package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a customer's purchase of a single item.
// AmountDue is fixed at submission and never recomputed.
type Order struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	OrderDate  time.Time       `json:"order_date" gorm:"type:date;not null"`
	CustomerID uint            `json:"customer_id" gorm:"not null;index"`
	Customer   *Customer       `json:"customer,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	ItemID     uint            `json:"item_id" gorm:"not null;index"`
	Item       *Item           `json:"item,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Quantity   int             `json:"quantity" gorm:"not null;check:chk_orders_quantity,quantity > 0"`
	AmountDue  decimal.Decimal `json:"amount_due" gorm:"type:numeric(12,2);not null"`
}

// Order outcome labels used for metrics
const (
	OrderOutcomeSubmitted   = "submitted"
	OrderOutcomeUnavailable = "item_unavailable"
	OrderOutcomeFailed      = "failed"
	OrderOutcomeDeleted     = "deleted"
)

// SubmitOrderRequest represents the request to place an order
type SubmitOrderRequest struct {
	CustomerID uint `json:"customer_id" binding:"required"`
	ItemID     uint `json:"item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,gt=0"`
}

// SubmitOrderResponse represents the response after placing an order
type SubmitOrderResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Order      *Order `json:"order"`
}

// OrderResponse wraps a single order
type OrderResponse struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Order      *Order `json:"order"`
}

// OrderListResponse wraps the order listing
type OrderListResponse struct {
	Success    bool    `json:"success"`
	StatusCode int     `json:"status_code"`
	Orders     []Order `json:"orders_list"`
	NumOrders  int     `json:"num_of_orders"`
}

// DeleteOrderResponse reports the order count before and after a delete
type DeleteOrderResponse struct {
	Success        bool   `json:"success"`
	StatusCode     int    `json:"status_code"`
	Message        string `json:"message"`
	PreviousOrders int64  `json:"previous_orders"`
	CurrentOrders  int64  `json:"current_orders"`
}
