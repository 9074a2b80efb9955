//go:build integration

package integration

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"testing"
)

func getCustomerSelf(t *testing.T, token string) customerResponse {
	t.Helper()
	resp, err := authorizedGet(token, "/api/customers")
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get customer: status %d", resp.StatusCode)
	}
	return decodeJSON[customerResponse](t, resp)
}

func getProduct(t *testing.T, token string, id int64) productResponse {
	t.Helper()
	resp, err := authorizedGet(token, fmt.Sprintf("/api/products/%d", id))
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get product %d: status %d", id, resp.StatusCode)
	}
	return decodeJSON[productResponse](t, resp)
}

func TestOrderCreateFlow(t *testing.T) {
	admin := adminToken(t)
	token := registerCustomer(t, "orderflow@example.com")
	p := createTestProduct(t, admin, "Rose Box (order flow)", 30.00, 10)

	resp := doJSON(t, http.MethodPost, "/api/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": p.ProductID, "quantity": 4}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: status %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)

	if math.Abs(order.TotalAmount-120.00) > 0.001 {
		t.Errorf("total %f, want 120.00", order.TotalAmount)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 4 {
		t.Errorf("unexpected items: %+v", order.Items)
	}

	// Stock decremented by exactly the ordered quantity.
	if got := getProduct(t, token, p.ProductID).StockQuantity; got != 6 {
		t.Errorf("stock after order %d, want 6", got)
	}

	// Cumulative spend and tier reflect the order: 120 >= Silver threshold.
	cust := getCustomerSelf(t, token)
	if math.Abs(cust.TotalSpent-120.00) > 0.001 {
		t.Errorf("total_spent %f, want 120.00", cust.TotalSpent)
	}
	if cust.LoyalName == nil || *cust.LoyalName != "Silver" {
		t.Errorf("loyalty %v, want Silver", cust.LoyalName)
	}
}

func TestOrderInsufficientStock(t *testing.T) {
	admin := adminToken(t)
	token := registerCustomer(t, "nostock@example.com")
	p := createTestProduct(t, admin, "Rare Orchid (stock test)", 99.00, 2)

	resp := doJSON(t, http.MethodPost, "/api/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": p.ProductID, "quantity": 5}},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("oversize order: status %d, want 400", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if !strings.Contains(body.Error, fmt.Sprint(p.ProductID)) {
		t.Errorf("error %q does not name the product", body.Error)
	}

	// Failed order left stock and spend untouched.
	if got := getProduct(t, token, p.ProductID).StockQuantity; got != 2 {
		t.Errorf("stock after failed order %d, want 2", got)
	}
	if spent := getCustomerSelf(t, token).TotalSpent; spent != 0 {
		t.Errorf("total_spent after failed order %f, want 0", spent)
	}
}

func TestOrderUnknownProductsReported(t *testing.T) {
	token := registerCustomer(t, "ghostproducts@example.com")

	resp := doJSON(t, http.MethodPost, "/api/orders", token, map[string]any{
		"items": []map[string]any{
			{"product_id": 909090, "quantity": 1},
			{"product_id": 909091, "quantity": 1},
		},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown products: status %d, want 400", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if !strings.Contains(body.Error, "909090") || !strings.Contains(body.Error, "909091") {
		t.Errorf("error %q does not list every missing id", body.Error)
	}
}

func TestOrderOwnership(t *testing.T) {
	admin := adminToken(t)
	owner := registerCustomer(t, "owner@example.com")
	other := registerCustomer(t, "nosy@example.com")
	p := createTestProduct(t, admin, "Tulip Crate (ownership)", 10.00, 30)

	resp := doJSON(t, http.MethodPost, "/api/orders", owner, map[string]any{
		"items": []map[string]any{{"product_id": p.ProductID, "quantity": 1}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: status %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	path := fmt.Sprintf("/api/orders/%d", order.OrderID)

	// A foreign order answers exactly like a missing one.
	resp = doJSON(t, http.MethodGet, path, other, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("foreign get: status %d, want 404", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodDelete, path, other, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("foreign delete: status %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, path, owner, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("owner get: status %d, want 200", resp.StatusCode)
	}
}

// Updating an order never touches product stock, and deleting an order does
// not put units back. Both intentional.
func TestOrderUpdateAndDeleteLeaveStockAlone(t *testing.T) {
	admin := adminToken(t)
	token := registerCustomer(t, "stockasym@example.com")
	p := createTestProduct(t, admin, "Peony Set (asymmetry)", 20.00, 10)

	resp := doJSON(t, http.MethodPost, "/api/orders", token, map[string]any{
		"items": []map[string]any{{"product_id": p.ProductID, "quantity": 3}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create order: status %d", resp.StatusCode)
	}
	order := decodeJSON[orderResponse](t, resp)
	path := fmt.Sprintf("/api/orders/%d", order.OrderID)

	if got := getProduct(t, token, p.ProductID).StockQuantity; got != 7 {
		t.Fatalf("stock after create %d, want 7", got)
	}

	resp = doJSON(t, http.MethodPut, path, token, map[string]any{
		"items": []map[string]any{{"product_id": p.ProductID, "quantity": 9}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update order: status %d", resp.StatusCode)
	}
	updated := decodeJSON[orderResponse](t, resp)
	if math.Abs(updated.TotalAmount-180.00) > 0.001 {
		t.Errorf("updated total %f, want 180.00", updated.TotalAmount)
	}
	if got := getProduct(t, token, p.ProductID).StockQuantity; got != 7 {
		t.Errorf("stock after update %d, want 7 (update must not adjust stock)", got)
	}

	resp = doJSON(t, http.MethodDelete, path, token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete order: status %d", resp.StatusCode)
	}
	if got := getProduct(t, token, p.ProductID).StockQuantity; got != 7 {
		t.Errorf("stock after delete %d, want 7 (delete must not restore stock)", got)
	}

	// Spend went back to zero and the tier was recomputed downward.
	cust := getCustomerSelf(t, token)
	if math.Abs(cust.TotalSpent) > 0.001 {
		t.Errorf("total_spent after delete %f, want 0", cust.TotalSpent)
	}
	if cust.LoyalName == nil || *cust.LoyalName != "Bronze" {
		t.Errorf("loyalty after delete %v, want Bronze", cust.LoyalName)
	}
}

// Two customers race for the last unit: exactly one create succeeds.
func TestOrderLastUnitContention(t *testing.T) {
	admin := adminToken(t)
	a := registerCustomer(t, "racer-a@example.com")
	b := registerCustomer(t, "racer-b@example.com")
	p := createTestProduct(t, admin, "Last Bouquet (contention)", 40.00, 1)

	order := func(token string) (int, error) {
		body := fmt.Sprintf(`{"items":[{"product_id":%d,"quantity":1}]}`, p.ProductID)
		req, err := http.NewRequest(http.MethodPost, baseURL+"/api/orders", strings.NewReader(body))
		if err != nil {
			return 0, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := httpClient.Do(req)
		if err != nil {
			return 0, err
		}
		resp.Body.Close()
		return resp.StatusCode, nil
	}

	statuses := make([]int, 2)
	var wg sync.WaitGroup
	for i, token := range []string{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := order(token)
			if err != nil {
				t.Errorf("concurrent order: %v", err)
				return
			}
			statuses[i] = status
		}()
	}
	wg.Wait()

	created, rejected := 0, 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusBadRequest:
			rejected++
		}
	}
	if created != 1 || rejected != 1 {
		t.Errorf("statuses %v: want exactly one 201 and one 400", statuses)
	}
	if got := getProduct(t, admin, p.ProductID).StockQuantity; got != 0 {
		t.Errorf("stock after race %d, want 0", got)
	}
}
