package api

import (
	"net/http"
	"strings"

	"github.com/ashendes/retail-api/internal/apperr"
	"github.com/ashendes/retail-api/internal/models"
	"github.com/ashendes/retail-api/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *handlers) listCustomers(c *gin.Context) {
	customers, err := h.store.Customers().List(c.Request.Context())
	if err != nil {
		fail(c, persistErr(err))
		return
	}

	c.JSON(http.StatusOK, models.CustomerListResponse{
		Success:    true,
		StatusCode: http.StatusOK,
		Customers:  customers,
		Total:      len(customers),
	})
}

func (h *handlers) getCustomer(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	customer, err := h.store.Customers().Get(c.Request.Context(), id)
	if err != nil {
		fail(c, lookupErr(err, "customer"))
		return
	}

	c.JSON(http.StatusOK, models.CustomerResponse{Success: true, StatusCode: http.StatusOK, Customer: customer})
}

func (h *handlers) createCustomer(c *gin.Context) {
	var req models.CreateCustomerRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	if err := trimField("name", &req.Name); err != nil {
		fail(c, err)
		return
	}

	customer := &models.Customer{
		Name:     req.Name,
		Email:    strings.TrimSpace(req.Email),
		JoinDate: today(),
	}

	if err := h.store.Customers().Create(c.Request.Context(), customer); err != nil {
		fail(c, persistErr(err))
		return
	}

	log.WithField("customer_id", customer.ID).Info("Customer created")
	c.JSON(http.StatusOK, models.CustomerResponse{Success: true, StatusCode: http.StatusOK, Customer: customer})
}

func (h *handlers) updateCustomer(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req models.UpdateCustomerRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if err := trimField("name", req.Name); err != nil {
		fail(c, err)
		return
	}
	if err := trimField("email", req.Email); err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var updated *models.Customer
	err = h.store.WithTx(ctx, func(tx store.Store) error {
		customer, err := tx.Customers().Get(ctx, id)
		if err != nil {
			return lookupErr(err, "customer")
		}
		if req.Empty() {
			return apperr.Validation("name or email is required")
		}

		if req.Name != nil {
			customer.Name = *req.Name
		}
		if req.Email != nil {
			customer.Email = *req.Email
		}

		if err := tx.Customers().Update(ctx, customer); err != nil {
			return persistErr(err)
		}
		updated = customer
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CustomerResponse{Success: true, StatusCode: http.StatusOK, Customer: updated})
}

func (h *handlers) deleteCustomer(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var name string
	var remaining int64
	err = h.store.WithTx(ctx, func(tx store.Store) error {
		customer, err := tx.Customers().Get(ctx, id)
		if err != nil {
			return lookupErr(err, "customer")
		}
		if err := tx.Customers().Delete(ctx, id); err != nil {
			return persistErr(err)
		}
		name = customer.Name
		remaining, err = tx.Customers().Count(ctx)
		if err != nil {
			return persistErr(err)
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	log.WithField("customer_id", id).Info("Customer deleted")
	c.JSON(http.StatusOK, models.DeleteCustomerResponse{
		Success:            true,
		StatusCode:         http.StatusOK,
		DeletedCustomer:    name,
		RemainingCustomers: remaining,
	})
}
