package models

import (
	"strings"
	"time"
)

// Customer represents a registered shopper
type Customer struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Name     string    `json:"name" gorm:"size:120;not null"`
	Email    string    `json:"email" gorm:"size:255;not null"`
	JoinDate time.Time `json:"join_date" gorm:"type:date;not null"`
}

// CreateCustomerRequest represents the request to register a customer
type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// UpdateCustomerRequest carries a partial customer update. Nil fields are left untouched.
type UpdateCustomerRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// Empty reports whether the request changes nothing
func (r UpdateCustomerRequest) Empty() bool {
	return isBlank(r.Name) && isBlank(r.Email)
}

// CustomerResponse wraps a single customer
type CustomerResponse struct {
	Success    bool      `json:"success"`
	StatusCode int       `json:"status_code"`
	Customer   *Customer `json:"customer"`
}

// CustomerListResponse wraps the customer listing
type CustomerListResponse struct {
	Success    bool       `json:"success"`
	StatusCode int        `json:"status_code"`
	Customers  []Customer `json:"customers"`
	Total      int        `json:"total"`
}

// DeleteCustomerResponse reports a deleted customer and how many remain
type DeleteCustomerResponse struct {
	Success            bool   `json:"success"`
	StatusCode         int    `json:"status_code"`
	DeletedCustomer    string `json:"deleted_customer"`
	RemainingCustomers int64  `json:"num_of_remaining_customers"`
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
