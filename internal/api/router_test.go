package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashendes/retail-api/internal/auth"
	"github.com/ashendes/retail-api/internal/metrics"
	"github.com/ashendes/retail-api/internal/models"
	"github.com/ashendes/retail-api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "router-test-secret"
	testIssuer   = "https://retail.test/"
	testAudience = "retail-api"
)

var allPermissions = []string{
	PermGetCustomers, PermPostCustomer, PermPatchCustomer, PermDeleteCustomer,
	PermGetItems, PermPostItem, PermPatchItem, PermDeleteItem,
	PermGetOrders, PermPostOrder, PermDeleteOrder,
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *store.MemoryStore
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := store.NewMemoryStore()
	checker := auth.NewChecker(auth.NewHMACKeySource(testSecret), auth.CheckerOptions{
		Issuer:   testIssuer,
		Audience: testAudience,
	})
	return &testServer{
		t:      t,
		router: NewRouter(Deps{ServiceName: "retail-test", Store: s, Authorizer: checker}),
		store:  s,
		token:  signToken(t, allPermissions...),
	}
}

func signToken(t *testing.T, permissions ...string) string {
	t.Helper()
	claims := &auth.Claims{
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "auth0|manager",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func requireError(t *testing.T, rr *httptest.ResponseRecorder, status int) ErrorResponse {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	body := decode[ErrorResponse](t, rr)
	assert.False(t, body.Success)
	assert.Equal(t, status, body.Error)
	assert.NotEmpty(t, body.Message)
	return body
}

func (s *testServer) createCustomer(name, email string) models.Customer {
	s.t.Helper()
	rr := s.do(http.MethodPost, "/new_customer", s.token, gin.H{"name": name, "email": email})
	require.Equal(s.t, http.StatusOK, rr.Code, rr.Body.String())
	return *decode[models.CustomerResponse](s.t, rr).Customer
}

func (s *testServer) createItem(body gin.H) models.Item {
	s.t.Helper()
	rr := s.do(http.MethodPost, "/new_item", s.token, body)
	require.Equal(s.t, http.StatusOK, rr.Code, rr.Body.String())
	return *decode[models.ItemResponse](s.t, rr).Item
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestCircuitStatusWithoutBreakers(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(http.MethodGet, "/circuit-status", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"circuits":[]}`, rr.Body.String())
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	body := requireError(t, s.do(http.MethodGet, "/customers", "", nil), http.StatusUnauthorized)
	assert.Equal(t, auth.CodeHeaderMissing, body.Code)
}

func TestMissingPermissionIsForbiddenRegardlessOfPayload(t *testing.T) {
	s := newTestServer(t)
	token := signToken(t, PermGetCustomers)

	requireError(t, s.do(http.MethodPost, "/new_customer", token, gin.H{"name": "Ada", "email": "ada@example.com"}), http.StatusForbidden)
	requireError(t, s.do(http.MethodPost, "/new_customer", token, gin.H{"bogus": true}), http.StatusForbidden)
	requireError(t, s.do(http.MethodDelete, "/delete_order/999", token, nil), http.StatusForbidden)

	n, err := s.store.Customers().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCustomerLifecycle(t *testing.T) {
	s := newTestServer(t)
	ada := s.createCustomer("Ada", "ada@example.com")
	s.createCustomer("Grace", "grace@example.com")

	assert.NotZero(t, ada.ID)
	assert.False(t, ada.JoinDate.IsZero())

	rr := s.do(http.MethodGet, "/customers", s.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[models.CustomerListResponse](t, rr)
	assert.True(t, list.Success)
	assert.Equal(t, 2, list.Total)

	rr = s.do(http.MethodPatch, "/update_customer/1", s.token, gin.H{"email": "ada@lovelace.dev"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[models.CustomerResponse](t, rr).Customer
	assert.Equal(t, "Ada", updated.Name)
	assert.Equal(t, "ada@lovelace.dev", updated.Email)

	rr = s.do(http.MethodDelete, "/delete_customer/1", s.token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	deleted := decode[models.DeleteCustomerResponse](t, rr)
	assert.Equal(t, "Ada", deleted.DeletedCustomer)
	assert.Equal(t, int64(1), deleted.RemainingCustomers)

	requireError(t, s.do(http.MethodGet, "/customers/1", s.token, nil), http.StatusNotFound)
}

func TestCustomerValidation(t *testing.T) {
	s := newTestServer(t)
	s.createCustomer("Ada", "ada@example.com")

	requireError(t, s.do(http.MethodPost, "/new_customer", s.token, gin.H{"name": "Ada"}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPost, "/new_customer", s.token, gin.H{"name": "  ", "email": "x@example.com"}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPatch, "/update_customer/1", s.token, gin.H{}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPatch, "/update_customer/42", s.token, gin.H{"name": "Nobody"}), http.StatusNotFound)
	requireError(t, s.do(http.MethodPatch, "/update_customer/1", s.token, gin.H{"name": "   "}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPatch, "/update_customer/1", s.token, gin.H{"name": ""}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodGet, "/customers/abc", s.token, nil), http.StatusBadRequest)
	requireError(t, s.do(http.MethodGet, "/customers/0", s.token, nil), http.StatusBadRequest)

	rr := s.do(http.MethodGet, "/customers/1", s.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ada", decode[models.CustomerResponse](t, rr).Customer.Name)
}

func TestItemLifecycle(t *testing.T) {
	s := newTestServer(t)

	item := s.createItem(gin.H{"name": "Desk", "brand": "Oak & Co", "price": "120.50"})
	assert.True(t, item.Available)
	assert.True(t, decimal.RequireFromString("120.5").Equal(item.Price))

	free := s.createItem(gin.H{"name": "Sticker", "brand": "Acme", "price": 0, "available": false})
	assert.False(t, free.Available)
	assert.True(t, free.Price.IsZero())

	rr := s.do(http.MethodPatch, "/update_item/1", s.token, gin.H{"available": false})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[models.ItemResponse](t, rr).Item
	assert.False(t, updated.Available)
	assert.Equal(t, "Desk", updated.Name)
	assert.True(t, item.Price.Equal(updated.Price))

	rr = s.do(http.MethodGet, "/items", s.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, decode[models.ItemListResponse](t, rr).Total)

	rr = s.do(http.MethodDelete, "/delete_item/2", s.token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	deleted := decode[models.DeleteItemResponse](t, rr)
	assert.Equal(t, "Sticker", deleted.DeletedItem)
	assert.Equal(t, int64(1), deleted.RemainingItems)
}

func TestItemValidation(t *testing.T) {
	s := newTestServer(t)
	s.createItem(gin.H{"name": "Desk", "brand": "Oak", "price": 10})

	requireError(t, s.do(http.MethodPost, "/new_item", s.token, gin.H{"name": "Desk", "brand": "Oak"}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPost, "/new_item", s.token, gin.H{"name": "Desk", "brand": "Oak", "price": -1}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPost, "/new_item", s.token, gin.H{"brand": "Oak", "price": 1}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPatch, "/update_item/1", s.token, gin.H{"price": -5}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPatch, "/update_item/1", s.token, gin.H{}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodDelete, "/delete_item/9", s.token, nil), http.StatusNotFound)

	requireError(t, s.do(http.MethodPost, "/new_item", s.token, gin.H{"name": "Desk", "brand": "  ", "price": 1}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPatch, "/update_item/1", s.token, gin.H{"brand": "  "}), http.StatusBadRequest)
	requireError(t, s.do(http.MethodPatch, "/update_item/1", s.token, gin.H{"name": "\t"}), http.StatusBadRequest)

	rr := s.do(http.MethodGet, "/items/1", s.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	stored := decode[models.ItemResponse](t, rr).Item
	assert.Equal(t, "Desk", stored.Name)
	assert.Equal(t, "Oak", stored.Brand)
}

func TestItemPriceMustFitMoneyColumn(t *testing.T) {
	s := newTestServer(t)
	s.createItem(gin.H{"name": "Desk", "brand": "Oak", "price": "0.33"})

	for _, price := range []any{"0.333", 1.005, "10000000000", "12345678901.5"} {
		requireError(t, s.do(http.MethodPost, "/new_item", s.token, gin.H{"name": "Pen", "brand": "Acme", "price": price}), http.StatusBadRequest)
		requireError(t, s.do(http.MethodPatch, "/update_item/1", s.token, gin.H{"price": price}), http.StatusBadRequest)
	}

	item := s.createItem(gin.H{"name": "Lamp", "brand": "Acme", "price": "9999999999.99"})
	assert.True(t, decimal.RequireFromString("9999999999.99").Equal(item.Price))

	customer := s.createCustomer("Ada", "ada@example.com")
	rr := s.do(http.MethodPost, "/submit_order", s.token, gin.H{"customer_id": customer.ID, "item_id": 1, "quantity": 3})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	order := decode[models.SubmitOrderResponse](t, rr).Order
	assert.True(t, decimal.RequireFromString("0.99").Equal(order.AmountDue), "got %s", order.AmountDue)
}

func TestPanicIsRecoveredAndCounted(t *testing.T) {
	s := newTestServer(t)
	s.router.GET("/explode", func(c *gin.Context) { panic("kaboom") })

	counter := metrics.RequestsTotal.WithLabelValues("retail-test", http.MethodGet, "/explode", "500")
	var before dto.Metric
	require.NoError(t, counter.Write(&before))

	requireError(t, s.do(http.MethodGet, "/explode", "", nil), http.StatusInternalServerError)

	var after dto.Metric
	require.NoError(t, counter.Write(&after))
	assert.Equal(t, before.GetCounter().GetValue()+1, after.GetCounter().GetValue())
}

func TestSubmitAndDeleteOrder(t *testing.T) {
	s := newTestServer(t)
	customer := s.createCustomer("Ada", "ada@example.com")
	item := s.createItem(gin.H{"name": "Monitor", "brand": "Acme", "price": "299.99"})

	rr := s.do(http.MethodPost, "/submit_order", s.token, gin.H{
		"customer_id": customer.ID,
		"item_id":     item.ID,
		"quantity":    3,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	order := decode[models.SubmitOrderResponse](t, rr).Order
	assert.True(t, decimal.RequireFromString("899.97").Equal(order.AmountDue), "got %s", order.AmountDue)
	assert.Equal(t, 3, order.Quantity)

	rr = s.do(http.MethodPost, "/new_order", s.token, gin.H{"customer_id": customer.ID, "item_id": item.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(http.MethodGet, "/orders", s.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[models.OrderListResponse](t, rr)
	assert.Equal(t, 2, list.NumOrders)
	require.Len(t, list.Orders, 2)
	require.NotNil(t, list.Orders[0].Customer)
	assert.Equal(t, "Ada", list.Orders[0].Customer.Name)

	// referenced rows cannot be removed while orders exist
	requireError(t, s.do(http.MethodDelete, "/delete_customer/1", s.token, nil), http.StatusUnprocessableEntity)
	requireError(t, s.do(http.MethodDelete, "/delete_item/1", s.token, nil), http.StatusUnprocessableEntity)

	rr = s.do(http.MethodDelete, "/delete_order/1", s.token, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	deleted := decode[models.DeleteOrderResponse](t, rr)
	assert.Equal(t, int64(2), deleted.PreviousOrders)
	assert.Equal(t, int64(1), deleted.CurrentOrders)

	requireError(t, s.do(http.MethodDelete, "/delete_order/1", s.token, nil), http.StatusNotFound)
	requireError(t, s.do(http.MethodGet, "/orders/1", s.token, nil), http.StatusNotFound)
}

func TestSubmitOrderFailures(t *testing.T) {
	s := newTestServer(t)
	customer := s.createCustomer("Ada", "ada@example.com")
	soldOut := s.createItem(gin.H{"name": "Headphones", "brand": "Acme", "price": "149.99", "available": false})

	requireError(t, s.do(http.MethodPost, "/submit_order", s.token, gin.H{
		"customer_id": customer.ID, "item_id": soldOut.ID, "quantity": 1,
	}), http.StatusUnprocessableEntity)
	requireError(t, s.do(http.MethodPost, "/submit_order", s.token, gin.H{
		"customer_id": customer.ID, "item_id": 77, "quantity": 1,
	}), http.StatusNotFound)
	requireError(t, s.do(http.MethodPost, "/submit_order", s.token, gin.H{
		"customer_id": customer.ID, "item_id": soldOut.ID, "quantity": 0,
	}), http.StatusBadRequest)

	n, err := s.store.Orders().Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s := newTestServer(t)
	requireError(t, s.do(http.MethodGet, "/nowhere", "", nil), http.StatusNotFound)
	requireError(t, s.do(http.MethodPut, "/customers", s.token, nil), http.StatusMethodNotAllowed)
}
