package api

import (
	"net/http"

	"github.com/ashendes/retail-api/internal/models"
	"github.com/ashendes/retail-api/internal/orders"
	"github.com/gin-gonic/gin"
)

func (h *handlers) listOrders(c *gin.Context) {
	list, err := h.orders.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{
		Success:    true,
		StatusCode: http.StatusOK,
		Orders:     list,
		NumOrders:  len(list),
	})
}

func (h *handlers) getOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{Success: true, StatusCode: http.StatusOK, Order: order})
}

func (h *handlers) submitOrder(c *gin.Context) {
	var req models.SubmitOrderRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	order, err := h.orders.Submit(c.Request.Context(), orders.SubmitInput{
		CustomerID: req.CustomerID,
		ItemID:     req.ItemID,
		Quantity:   req.Quantity,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SubmitOrderResponse{Success: true, StatusCode: http.StatusOK, Order: order})
}

func (h *handlers) deleteOrder(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		fail(c, err)
		return
	}

	result, err := h.orders.Delete(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DeleteOrderResponse{
		Success:        true,
		StatusCode:     http.StatusOK,
		Message:        "order was deleted",
		PreviousOrders: result.Previous,
		CurrentOrders:  result.Current,
	})
}
