package api

import (
	"net/http"

	"github.com/ashendes/retail-api/internal/apperr"
	"github.com/ashendes/retail-api/internal/models"
	"github.com/ashendes/retail-api/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *handlers) listItems(c *gin.Context) {
	items, err := h.store.Items().List(c.Request.Context())
	if err != nil {
		fail(c, persistErr(err))
		return
	}

	c.JSON(http.StatusOK, models.ItemListResponse{
		Success:    true,
		StatusCode: http.StatusOK,
		Items:      items,
		Total:      len(items),
	})
}

func (h *handlers) getItem(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	item, err := h.store.Items().Get(c.Request.Context(), id)
	if err != nil {
		fail(c, lookupErr(err, "item"))
		return
	}

	c.JSON(http.StatusOK, models.ItemResponse{Success: true, StatusCode: http.StatusOK, Item: item})
}

func (h *handlers) createItem(c *gin.Context) {
	var req models.CreateItemRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	if err := trimField("name", &req.Name); err != nil {
		fail(c, err)
		return
	}
	if err := trimField("brand", &req.Brand); err != nil {
		fail(c, err)
		return
	}
	if req.Price == nil {
		fail(c, apperr.Validation("price is required"))
		return
	}
	if err := checkPrice(*req.Price); err != nil {
		fail(c, err)
		return
	}

	item := &models.Item{
		Name:      req.Name,
		Brand:     req.Brand,
		Price:     *req.Price,
		Available: true,
	}
	if req.Available != nil {
		item.Available = *req.Available
	}

	if err := h.store.Items().Create(c.Request.Context(), item); err != nil {
		fail(c, persistErr(err))
		return
	}

	log.WithFields(log.Fields{
		"item_id": item.ID,
		"price":   item.Price.StringFixed(2),
	}).Info("Item created")
	c.JSON(http.StatusOK, models.ItemResponse{Success: true, StatusCode: http.StatusOK, Item: item})
}

func (h *handlers) updateItem(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req models.UpdateItemRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if err := trimField("name", req.Name); err != nil {
		fail(c, err)
		return
	}
	if err := trimField("brand", req.Brand); err != nil {
		fail(c, err)
		return
	}
	if req.Price != nil {
		if err := checkPrice(*req.Price); err != nil {
			fail(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	var updated *models.Item
	err = h.store.WithTx(ctx, func(tx store.Store) error {
		item, err := tx.Items().Get(ctx, id)
		if err != nil {
			return lookupErr(err, "item")
		}
		if req.Empty() {
			return apperr.Validation("name, brand, price or available is required")
		}

		if req.Name != nil {
			item.Name = *req.Name
		}
		if req.Brand != nil {
			item.Brand = *req.Brand
		}
		if req.Price != nil {
			item.Price = *req.Price
		}
		if req.Available != nil {
			item.Available = *req.Available
		}

		if err := tx.Items().Update(ctx, item); err != nil {
			return persistErr(err)
		}
		updated = item
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ItemResponse{Success: true, StatusCode: http.StatusOK, Item: updated})
}

func (h *handlers) deleteItem(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	ctx := c.Request.Context()
	var name string
	var remaining int64
	err = h.store.WithTx(ctx, func(tx store.Store) error {
		item, err := tx.Items().Get(ctx, id)
		if err != nil {
			return lookupErr(err, "item")
		}
		if err := tx.Items().Delete(ctx, id); err != nil {
			return persistErr(err)
		}
		name = item.Name
		remaining, err = tx.Items().Count(ctx)
		if err != nil {
			return persistErr(err)
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}

	log.WithField("item_id", id).Info("Item deleted")
	c.JSON(http.StatusOK, models.DeleteItemResponse{
		Success:        true,
		StatusCode:     http.StatusOK,
		DeletedItem:    name,
		RemainingItems: remaining,
	})
}
