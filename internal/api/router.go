// Package api exposes the retail REST endpoints over gin.
package api

import (
	"net/http"

	"github.com/ashendes/retail-api/internal/auth"
	"github.com/ashendes/retail-api/internal/metrics"
	"github.com/ashendes/retail-api/internal/orders"
	"github.com/ashendes/retail-api/internal/patterns"
	"github.com/ashendes/retail-api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Permissions required by each route, in {verb}:{resource} form
const (
	PermGetCustomers   = "get:customers"
	PermPostCustomer   = "post:customer"
	PermPatchCustomer  = "patch:customer"
	PermDeleteCustomer = "delete:customer"
	PermGetItems       = "get:items"
	PermPostItem       = "post:item"
	PermPatchItem      = "patch:item"
	PermDeleteItem     = "delete:item"
	PermGetOrders      = "get:orders"
	PermPostOrder      = "post:order"
	PermDeleteOrder    = "delete:order"
)

// Deps are the collaborators the router wires into handlers
type Deps struct {
	ServiceName string
	Store       store.Store
	Orders      *orders.Service
	Authorizer  auth.Authorizer
	// Circuits reports outbound breakers; nil when there are none
	Circuits func() []patterns.CircuitStatus
}

type handlers struct {
	store    store.Store
	orders   *orders.Service
	circuits func() []patterns.CircuitStatus
}

// NewRouter builds the gin engine with middleware and every route
func NewRouter(d Deps) *gin.Engine {
	h := &handlers{store: d.Store, orders: d.Orders, circuits: d.Circuits}
	if h.orders == nil {
		h.orders = orders.NewService(d.Store)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		RequestID(),
		RequestLogger(),
		metrics.PrometheusMiddleware(d.ServiceName),
		Recovery(),
		ErrorHandler(),
	)
	router.NoRoute(notFound)
	router.NoMethod(methodNotAllowed)

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/circuit-status", h.circuitStatus)

	can := func(permission string) gin.HandlerFunc {
		return auth.RequirePermission(d.Authorizer, permission)
	}

	// Customer endpoints
	router.GET("/customers", can(PermGetCustomers), h.listCustomers)
	router.GET("/customers/:id", can(PermGetCustomers), h.getCustomer)
	router.POST("/new_customer", can(PermPostCustomer), h.createCustomer)
	router.PATCH("/update_customer/:id", can(PermPatchCustomer), h.updateCustomer)
	router.DELETE("/delete_customer/:id", can(PermDeleteCustomer), h.deleteCustomer)

	// Item endpoints
	router.GET("/items", can(PermGetItems), h.listItems)
	router.GET("/items/:id", can(PermGetItems), h.getItem)
	router.POST("/new_item", can(PermPostItem), h.createItem)
	router.PATCH("/update_item/:id", can(PermPatchItem), h.updateItem)
	router.DELETE("/delete_item/:id", can(PermDeleteItem), h.deleteItem)

	// Order endpoints
	router.GET("/orders", can(PermGetOrders), h.listOrders)
	router.GET("/orders/:id", can(PermGetOrders), h.getOrder)
	router.POST("/submit_order", can(PermPostOrder), h.submitOrder)
	router.POST("/new_order", can(PermPostOrder), h.submitOrder)
	router.DELETE("/delete_order/:id", can(PermDeleteOrder), h.deleteOrder)

	return router
}

func (h *handlers) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// circuitStatus returns the state of each outbound circuit breaker
func (h *handlers) circuitStatus(c *gin.Context) {
	circuits := []patterns.CircuitStatus{}
	if h.circuits != nil {
		circuits = h.circuits()
	}
	c.JSON(http.StatusOK, gin.H{"circuits": circuits})
}
