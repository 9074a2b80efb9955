package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dungnguyen2112/FLowershop/internal/domain/auth"
	"github.com/dungnguyen2112/FLowershop/internal/domain/customer"
	"github.com/dungnguyen2112/FLowershop/internal/domain/loyalty"
	"github.com/dungnguyen2112/FLowershop/internal/domain/order"
	"github.com/dungnguyen2112/FLowershop/internal/domain/product"
	"github.com/dungnguyen2112/FLowershop/internal/domain/revenue"
)

// --- Mock implementations ---
//
// One set of map-backed mocks serves both the handler's direct repositories
// and the order service's unit of work. mockStore's WithTx hands the mocks
// straight back, so handler tests exercise routing, binding, auth, and error
// mapping without a database.

type mockState struct {
	products  map[int64]product.Product
	customers map[int64]customer.Customer
	tiers     []loyalty.Tier
	orders    map[int64]order.Order
	items     map[int64]order.Item
	nextID    int64
}

func (s *mockState) nextSeq() int64 {
	s.nextID++
	return s.nextID
}

type mockStore struct{ s *mockState }

func (m *mockStore) WithTx(_ context.Context, fn func(tx order.Tx) error) error {
	return fn(m)
}

func (m *mockStore) Products() product.Repository   { return &mockProducts{m.s} }
func (m *mockStore) Customers() customer.Repository { return &mockCustomers{m.s} }
func (m *mockStore) Orders() order.Repository       { return &mockOrders{m.s} }
func (m *mockStore) Tiers() loyalty.Repository      { return &mockTiers{m.s} }

type mockProducts struct{ s *mockState }

func (m *mockProducts) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(m.s.products))
	for _, p := range m.s.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProducts) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProducts) GetByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProducts) GetByIDsForUpdate(ctx context.Context, ids []int64) ([]product.Product, error) {
	return m.GetByIDs(ctx, ids)
}

func (m *mockProducts) Create(_ context.Context, p *product.Product) error {
	p.ID = m.s.nextSeq()
	m.s.products[p.ID] = *p
	return nil
}

func (m *mockProducts) Update(_ context.Context, p *product.Product) error {
	if _, ok := m.s.products[p.ID]; !ok {
		return product.ErrNotFound
	}
	m.s.products[p.ID] = *p
	return nil
}

func (m *mockProducts) Delete(_ context.Context, id int64) error {
	if _, ok := m.s.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(m.s.products, id)
	return nil
}

func (m *mockProducts) DecrementStock(_ context.Context, id, qty int64) error {
	p, ok := m.s.products[id]
	if !ok || p.StockQuantity < qty {
		return product.ErrInsufficientStock
	}
	p.StockQuantity -= qty
	m.s.products[id] = p
	return nil
}

type mockCustomers struct{ s *mockState }

func (m *mockCustomers) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := m.s.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

func (m *mockCustomers) GetByEmail(_ context.Context, email string) (*customer.Customer, error) {
	for _, c := range m.s.customers {
		if c.Email == email {
			return &c, nil
		}
	}
	return nil, customer.ErrNotFound
}

func (m *mockCustomers) List(_ context.Context) ([]customer.Customer, error) {
	out := make([]customer.Customer, 0, len(m.s.customers))
	for _, c := range m.s.customers {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCustomers) Create(_ context.Context, c *customer.Customer) error {
	for _, existing := range m.s.customers {
		if existing.Email == c.Email {
			return customer.ErrEmailTaken
		}
	}
	c.ID = m.s.nextSeq()
	m.s.customers[c.ID] = *c
	return nil
}

func (m *mockCustomers) Update(_ context.Context, c *customer.Customer) error {
	if _, ok := m.s.customers[c.ID]; !ok {
		return customer.ErrNotFound
	}
	m.s.customers[c.ID] = *c
	return nil
}

func (m *mockCustomers) UpdatePassword(_ context.Context, id int64, hashed string) error {
	c, ok := m.s.customers[id]
	if !ok {
		return customer.ErrNotFound
	}
	c.HashedPassword = hashed
	m.s.customers[id] = c
	return nil
}

func (m *mockCustomers) UpdateLedger(_ context.Context, id int64, spent decimal.Decimal, tierID *int64) error {
	c, ok := m.s.customers[id]
	if !ok {
		return customer.ErrNotFound
	}
	c.TotalSpent = spent
	c.LoyaltyID = tierID
	m.s.customers[id] = c
	return nil
}

type mockTiers struct{ s *mockState }

func (m *mockTiers) List(_ context.Context) ([]loyalty.Tier, error) {
	return m.s.tiers, nil
}

func (m *mockTiers) GetByID(_ context.Context, id int64) (*loyalty.Tier, error) {
	for _, t := range m.s.tiers {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, loyalty.ErrNotFound
}

type mockOrders struct{ s *mockState }

func (m *mockOrders) Create(_ context.Context, o *order.Order) error {
	o.ID = m.s.nextSeq()
	m.s.orders[o.ID] = *o
	return nil
}

func (m *mockOrders) GetByID(_ context.Context, orderID, customerID int64) (*order.Order, error) {
	o, ok := m.s.orders[orderID]
	if !ok || o.CustomerID != customerID {
		return nil, order.ErrNotFound
	}
	return &o, nil
}

func (m *mockOrders) ListByCustomer(_ context.Context, customerID int64) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.s.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrders) ListAll(_ context.Context) ([]order.Order, error) {
	out := make([]order.Order, 0, len(m.s.orders))
	for _, o := range m.s.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockOrders) UpdateHeader(_ context.Context, o *order.Order) error {
	if _, ok := m.s.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	m.s.orders[o.ID] = *o
	return nil
}

func (m *mockOrders) Delete(_ context.Context, orderID int64) error {
	delete(m.s.orders, orderID)
	for id, item := range m.s.items {
		if item.OrderID == orderID {
			delete(m.s.items, id)
		}
	}
	return nil
}

func (m *mockOrders) InsertItem(_ context.Context, item *order.Item) error {
	item.ID = m.s.nextSeq()
	m.s.items[item.ID] = *item
	return nil
}

func (m *mockOrders) UpdateItem(_ context.Context, item *order.Item) error {
	m.s.items[item.ID] = *item
	return nil
}

func (m *mockOrders) ListItems(_ context.Context, orderID int64) ([]order.Item, error) {
	var out []order.Item
	for _, item := range m.s.items {
		if item.OrderID == orderID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockOrders) DeleteItems(_ context.Context, orderID int64, productIDs []int64) error {
	for id, item := range m.s.items {
		if item.OrderID != orderID {
			continue
		}
		for _, pid := range productIDs {
			if item.ProductID == pid {
				delete(m.s.items, id)
			}
		}
	}
	return nil
}

type mockRevenue struct{}

func (mockRevenue) Daily(_ context.Context, date *time.Time) (*revenue.DailyReport, error) {
	report := &revenue.DailyReport{TotalRevenue: decimal.RequireFromString("123.45")}
	if date != nil {
		report.Date = *date
	}
	return report, nil
}

func (mockRevenue) Monthly(_ context.Context, year, month *int) (*revenue.MonthlyReport, error) {
	return &revenue.MonthlyReport{Year: 2026, Month: 8, TotalRevenue: decimal.NewFromInt(1000)}, nil
}

func (mockRevenue) Yearly(_ context.Context, year *int) (*revenue.YearlyReport, error) {
	return &revenue.YearlyReport{Year: 2026, TotalRevenue: decimal.NewFromInt(9000)}, nil
}

// --- Helpers ---

type testEnv struct {
	engine *gin.Engine
	auth   *auth.Service
	state  *mockState
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	state := &mockState{
		products:  make(map[int64]product.Product),
		customers: make(map[int64]customer.Customer),
		orders:    make(map[int64]order.Order),
		items:     make(map[int64]order.Item),
		tiers: []loyalty.Tier{
			{ID: 3, Status: "Gold", PointsThreshold: 500},
			{ID: 2, Status: "Silver", PointsThreshold: 100},
			{ID: 1, Status: "Bronze", PointsThreshold: 0},
		},
	}
	store := &mockStore{s: state}
	authService := auth.NewService([]byte("test-secret"), time.Hour)

	h := NewHandler(
		authService,
		&mockCustomers{state},
		&mockProducts{state},
		&mockTiers{state},
		order.NewService(store),
		mockRevenue{},
	)

	engine := gin.New()
	h.Routes(engine)
	return &testEnv{engine: engine, auth: authService, state: state}
}

func (e *testEnv) addCustomer(t *testing.T, email string, roleID int64) (int64, string) {
	t.Helper()
	id := e.state.nextSeq()
	e.state.customers[id] = customer.Customer{
		ID: id, Name: "Test", Email: email, HashedPassword: "x",
		TotalSpent: decimal.Zero, RoleID: roleID,
	}
	token, err := e.auth.CreateToken(email, id, roleID)
	require.NoError(t, err)
	return id, token
}

func (e *testEnv) addProduct(name string, price string, stock int64) int64 {
	id := e.state.nextSeq()
	e.state.products[id] = product.Product{
		ID: id, Name: name, Price: decimal.RequireFromString(price), StockQuantity: stock,
	}
	return id
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- Auth ---

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	req := gin.H{
		"name": "Nguyen Van A", "email": "a@example.com", "password": "123456",
		"phone_number": "0123456789", "address": "Ha Noi", "role_id": 2,
	}
	w := env.do(http.MethodPost, "/auth", "", req)
	assert.Equal(t, http.StatusCreated, w.Code)

	// Same email again.
	w = env.do(http.MethodPost, "/auth", "", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "already registered")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	req := gin.H{
		"name": "Nguyen Van A", "email": "a@example.com", "password": "123456",
		"phone_number": "0123456789", "address": "Ha Noi", "role_id": 2,
	}
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/auth", "", req).Code)

	form := url.Values{"username": {"a@example.com"}, "password": {"123456"}}
	httpReq := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, httpReq)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])

	// Wrong password.
	form.Set("password", "wrong")
	httpReq = httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	env.engine.ServeHTTP(w, httpReq)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/products", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, token := env.addCustomer(t, "u@example.com", 2)
	w = env.do(http.MethodGet, "/api/products", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Products ---

func TestProductWritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.addCustomer(t, "u@example.com", 2)
	_, adminToken := env.addCustomer(t, "admin@example.com", customer.AdminRoleID)

	req := gin.H{"name": "Rose Bouquet", "price": 29.99, "stock_quantity": 10}

	w := env.do(http.MethodPost, "/api/products", userToken, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodPost, "/api/products", adminToken, req)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Rose Bouquet", body["name"])
	assert.NotZero(t, body["product_id"])
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.addCustomer(t, "u@example.com", 2)

	w := env.do(http.MethodGet, "/api/products/42", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Orders ---

func TestCreateOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.addCustomer(t, "u@example.com", 2)
	pid := env.addProduct("Tulip Mix", "22.75", 5)

	w := env.do(http.MethodPost, "/api/orders", token, gin.H{
		"items": []gin.H{{"product_id": pid, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.InDelta(t, 45.50, body["total_amount"], 0.001)
	assert.Len(t, body["items"], 1)
}

func TestCreateOrderEndpoint_InsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.addCustomer(t, "u@example.com", 2)
	pid := env.addProduct("Orchid Pot", "45.00", 1)

	w := env.do(http.MethodPost, "/api/orders", token, gin.H{
		"items": []gin.H{{"product_id": pid, "quantity": 3}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "not enough stock")
}

func TestCreateOrderEndpoint_ProductNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.addCustomer(t, "u@example.com", 2)

	w := env.do(http.MethodPost, "/api/orders", token, gin.H{
		"items": []gin.H{{"product_id": 404, "quantity": 1}, {"product_id": 405, "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	msg := decodeBody(t, w)["error"].(string)
	assert.Contains(t, msg, "404")
	assert.Contains(t, msg, "405")
}

func TestGetOrder_ForeignOrderIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.addCustomer(t, "owner@example.com", 2)
	_, otherToken := env.addCustomer(t, "other@example.com", 2)
	pid := env.addProduct("Tulip Mix", "22.75", 5)

	w := env.do(http.MethodPost, "/api/orders", ownerToken, gin.H{
		"items": []gin.H{{"product_id": pid, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := int64(decodeBody(t, w)["order_id"].(float64))

	w = env.do(http.MethodGet, "/api/orders/"+strconv.FormatInt(orderID, 10), otherToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/orders/"+strconv.FormatInt(orderID, 10), ownerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Admin ---

func TestAdminEndpointsRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.addCustomer(t, "u@example.com", 2)
	_, adminToken := env.addCustomer(t, "admin@example.com", customer.AdminRoleID)

	for _, path := range []string{
		"/api/admin/products",
		"/api/admin/customers",
		"/api/admin/orders",
		"/api/revenue/statistics/daily",
	} {
		w := env.do(http.MethodGet, path, userToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)

		w = env.do(http.MethodGet, path, adminToken, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRevenueEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.addCustomer(t, "admin@example.com", customer.AdminRoleID)

	w := env.do(http.MethodGet, "/api/revenue/statistics/daily?date=2026-08-01", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "2026-08-01", body["date"])
	assert.InDelta(t, 123.45, body["total_revenue"], 0.001)

	w = env.do(http.MethodGet, "/api/revenue/statistics/daily?date=bogus", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodGet, "/api/revenue/statistics/monthly?year=2026&month=8", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 1000, decodeBody(t, w)["total_revenue"], 0.001)

	w = env.do(http.MethodGet, "/api/revenue/statistics/yearly", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 9000, decodeBody(t, w)["total_revenue"], 0.001)
}
