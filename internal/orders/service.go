// Package orders implements order submission and deletion.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/ashendes/retail-api/internal/apperr"
	"github.com/ashendes/retail-api/internal/metrics"
	"github.com/ashendes/retail-api/internal/models"
	"github.com/ashendes/retail-api/internal/store"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// ErrItemUnavailable rejects orders for items flagged unavailable
var ErrItemUnavailable = apperr.Unprocessable("item not available", nil)

// Service manages order operations
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates an order service backed by s
func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// SubmitInput is a validated order submission
type SubmitInput struct {
	CustomerID uint
	ItemID     uint
	Quantity   int
}

// DeleteResult reports the order count around a delete
type DeleteResult struct {
	Previous int64
	Current  int64
}

// Submit places an order for quantity units of an available item. The
// amount due is the item's current price times quantity and is stored
// with the order.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*models.Order, error) {
	if err := validateSubmit(in); err != nil {
		metrics.OrdersTotal.WithLabelValues(models.OrderOutcomeFailed).Inc()
		return nil, err
	}

	var order *models.Order
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		item, err := tx.Items().Get(ctx, in.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("item not found")
			}
			return apperr.Unprocessable("unprocessable", err)
		}

		if !item.Available {
			return ErrItemUnavailable
		}

		amount := AmountDue(item.Price, in.Quantity)
		if !models.MoneyFits(amount) {
			return apperr.Unprocessable("amount due is out of range", nil)
		}

		order = &models.Order{
			OrderDate:  today(s.now()),
			CustomerID: in.CustomerID,
			ItemID:     in.ItemID,
			Quantity:   in.Quantity,
			AmountDue:  amount,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return apperr.Unprocessable("unprocessable", err)
		}
		return nil
	})
	if err != nil {
		outcome := models.OrderOutcomeFailed
		if errors.Is(err, ErrItemUnavailable) {
			outcome = models.OrderOutcomeUnavailable
		}
		metrics.OrdersTotal.WithLabelValues(outcome).Inc()
		log.WithFields(log.Fields{
			"customer_id": in.CustomerID,
			"item_id":     in.ItemID,
			"quantity":    in.Quantity,
		}).WithError(err).Warn("Order submission rejected")
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues(models.OrderOutcomeSubmitted).Inc()
	amount, _ := order.AmountDue.Float64()
	metrics.OrderAmountDue.Observe(amount)

	log.WithFields(log.Fields{
		"order_id":   order.ID,
		"item_id":    order.ItemID,
		"amount_due": order.AmountDue.StringFixed(2),
	}).Info("Order submitted")

	return order, nil
}

// Delete removes an order and verifies that exactly one order disappeared
func (s *Service) Delete(ctx context.Context, id uint) (DeleteResult, error) {
	var result DeleteResult
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Orders().Get(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.NotFound("order not found")
			}
			return apperr.Unprocessable("unprocessable", err)
		}

		prior, err := tx.Orders().Count(ctx)
		if err != nil {
			return apperr.Unprocessable("unprocessable", err)
		}

		if err := tx.Orders().Delete(ctx, id); err != nil {
			return apperr.Unprocessable("unprocessable", err)
		}

		current, err := tx.Orders().Count(ctx)
		if err != nil {
			return apperr.Unprocessable("unprocessable", err)
		}
		if current != prior-1 {
			log.WithFields(log.Fields{
				"order_id": id,
				"prior":    prior,
				"current":  current,
			}).Error("Order count did not drop after delete")
			return apperr.Unprocessable("order was not deleted", nil)
		}

		result = DeleteResult{Previous: prior, Current: current}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}

	metrics.OrdersTotal.WithLabelValues(models.OrderOutcomeDeleted).Inc()
	log.WithField("order_id", id).Info("Order deleted")
	return result, nil
}

// List returns every order with its customer and item
func (s *Service) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.Orders().List(ctx)
	if err != nil {
		return nil, apperr.Unprocessable("unprocessable", err)
	}
	return orders, nil
}

// Get returns one order with its customer and item
func (s *Service) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("order not found")
		}
		return nil, apperr.Unprocessable("unprocessable", err)
	}
	return order, nil
}

// AmountDue returns price × quantity
func AmountDue(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

func validateSubmit(in SubmitInput) error {
	switch {
	case in.CustomerID == 0:
		return apperr.Validation("customer_id is required")
	case in.ItemID == 0:
		return apperr.Validation("item_id is required")
	case in.Quantity <= 0:
		return apperr.Validation("quantity must be greater than 0")
	}
	return nil
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
