package order

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dungnguyen2112/FLowershop/internal/domain/loyalty"
	"github.com/dungnguyen2112/FLowershop/internal/domain/product"
)

// ItemRequest is one requested order line.
type ItemRequest struct {
	ProductID int64
	Quantity  int64
}

// CreateOrderRequest holds the input for placing an order.
type CreateOrderRequest struct {
	CustomerID int64
	Items      []ItemRequest
	// OrderDate defaults to the current time when nil.
	OrderDate *time.Time
}

// UpdateOrderRequest holds the input for modifying an order. A nil Items
// leaves the item set untouched; a non-nil (possibly empty) Items replaces it
// using diff-by-product-id semantics.
type UpdateOrderRequest struct {
	OrderID    int64
	CustomerID int64
	OrderDate  *time.Time
	Items      *[]ItemRequest
}

// ItemResult is one order line as returned to the API layer.
type ItemResult struct {
	OrderItemID     int64
	ProductID       int64
	Quantity        int64
	PriceAtPurchase decimal.Decimal
}

// OrderResult is the order as returned to the API layer.
type OrderResult struct {
	OrderID     int64
	CustomerID  int64
	TotalAmount decimal.Decimal
	OrderDate   time.Time
	Items       []ItemResult
}

// Service orchestrates the order lifecycle: stock validation and adjustment,
// price snapshotting, order persistence, and loyalty recomputation. Every
// operation runs inside a single unit of work.
type Service struct {
	store Store
}

// NewService creates an order Service on top of the given transactional store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create places a new order. All referenced products are resolved in one
// batch with row locks, quantities are checked against current stock, prices
// are snapshotted, stock is decremented, and the customer's cumulative spend
// and loyalty tier are updated. Any failure rolls the whole operation back.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
	}

	var result *OrderResult
	err := s.store.WithTx(ctx, func(tx Tx) error {
		cust, err := tx.Customers().GetByID(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		// One locked batch read of the catalog: the stock checks below and
		// the decrements share a consistent snapshot, and concurrent
		// creations against the same products serialize on the row locks.
		products, err := resolveProducts(ctx, tx, req.Items, true)
		if err != nil {
			return err
		}

		for _, item := range req.Items {
			if products[item.ProductID].StockQuantity < item.Quantity {
				return &InsufficientStockError{ProductID: item.ProductID}
			}
		}

		orderDate := time.Now()
		if req.OrderDate != nil {
			orderDate = *req.OrderDate
		}

		total := decimal.Zero
		for _, item := range req.Items {
			price := products[item.ProductID].Price
			total = total.Add(price.Mul(decimal.NewFromInt(item.Quantity)))
		}

		o := &Order{
			CustomerID:  req.CustomerID,
			OrderDate:   orderDate,
			TotalAmount: total,
		}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		for _, item := range req.Items {
			line := &Item{
				OrderID:         o.ID,
				ProductID:       item.ProductID,
				Quantity:        item.Quantity,
				PriceAtPurchase: products[item.ProductID].Price,
			}
			if err := tx.Orders().InsertItem(ctx, line); err != nil {
				return errors.Wrapf(err, "insert item for product %d", item.ProductID)
			}
			// The guarded decrement is a second line of defense: a request
			// listing the same product twice can pass the per-line check
			// above while the cumulative quantity exceeds stock.
			if err := tx.Products().DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientStock) {
					return &InsufficientStockError{ProductID: item.ProductID}
				}
				return errors.Wrapf(err, "decrement stock for product %d", item.ProductID)
			}
		}

		// Loyalty recompute. On create the tier is only overwritten when a
		// qualifying tier exists; an unqualified spend keeps the old tier.
		newSpent := cust.TotalSpent.Add(total)
		newTier, err := s.recomputeTier(ctx, tx, newSpent)
		if err != nil {
			return err
		}
		tierID := cust.LoyaltyID
		if newTier != nil {
			tierID = newTier
		}
		if err := tx.Customers().UpdateLedger(ctx, cust.ID, newSpent, tierID); err != nil {
			return errors.Wrap(err, "update customer ledger")
		}

		result, err = buildResult(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update modifies an order's date and, when a replacement item list is given,
// its item set. Replacement diffs by product id: lines for known products are
// updated in place with a re-snapshotted price, new products are inserted,
// absent products are removed. The customer's spend is adjusted by the total
// delta and the loyalty tier is unconditionally overwritten, including to
// no-tier. Stock is intentionally not re-validated or adjusted on update.
func (s *Service) Update(ctx context.Context, req UpdateOrderRequest) (*OrderResult, error) {
	if req.Items != nil {
		for _, item := range *req.Items {
			if item.Quantity <= 0 {
				return nil, &InvalidQuantityError{ProductID: item.ProductID}
			}
		}
	}

	var result *OrderResult
	err := s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.Orders().GetByID(ctx, req.OrderID, req.CustomerID)
		if err != nil {
			return err
		}

		if req.OrderDate != nil {
			o.OrderDate = *req.OrderDate
		}

		if req.Items != nil {
			if err := s.replaceItems(ctx, tx, o, *req.Items); err != nil {
				return err
			}
		}

		if err := tx.Orders().UpdateHeader(ctx, o); err != nil {
			return errors.Wrap(err, "update order")
		}

		result, err = buildResult(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// replaceItems applies diff-by-product-id replacement of o's item set and the
// resulting spend and tier adjustments. Called with the order row already
// loaded under the transaction.
func (s *Service) replaceItems(ctx context.Context, tx Tx, o *Order, items []ItemRequest) error {
	products, err := resolveProducts(ctx, tx, items, false)
	if err != nil {
		return err
	}

	existing, err := tx.Orders().ListItems(ctx, o.ID)
	if err != nil {
		return errors.Wrap(err, "list order items")
	}
	existingByProduct := make(map[int64]*Item, len(existing))
	for i := range existing {
		existingByProduct[existing[i].ProductID] = &existing[i]
	}

	newTotal := decimal.Zero
	keep := make(map[int64]struct{}, len(items))
	for _, item := range items {
		price := products[item.ProductID].Price
		newTotal = newTotal.Add(price.Mul(decimal.NewFromInt(item.Quantity)))
		keep[item.ProductID] = struct{}{}

		if line, ok := existingByProduct[item.ProductID]; ok {
			line.Quantity = item.Quantity
			line.PriceAtPurchase = price
			if err := tx.Orders().UpdateItem(ctx, line); err != nil {
				return errors.Wrapf(err, "update item for product %d", item.ProductID)
			}
			continue
		}
		line := &Item{
			OrderID:         o.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: price,
		}
		if err := tx.Orders().InsertItem(ctx, line); err != nil {
			return errors.Wrapf(err, "insert item for product %d", item.ProductID)
		}
	}

	var removed []int64
	for productID := range existingByProduct {
		if _, ok := keep[productID]; !ok {
			removed = append(removed, productID)
		}
	}
	if len(removed) > 0 {
		slices.Sort(removed)
		if err := tx.Orders().DeleteItems(ctx, o.ID, removed); err != nil {
			return errors.Wrap(err, "delete removed items")
		}
	}

	cust, err := tx.Customers().GetByID(ctx, o.CustomerID)
	if err != nil {
		return err
	}

	newSpent := cust.TotalSpent.Sub(o.TotalAmount).Add(newTotal)
	o.TotalAmount = newTotal

	// Unlike create, update always overwrites the tier, clearing it when
	// nothing qualifies.
	tierID, err := s.recomputeTier(ctx, tx, newSpent)
	if err != nil {
		return err
	}
	if err := tx.Customers().UpdateLedger(ctx, cust.ID, newSpent, tierID); err != nil {
		return errors.Wrap(err, "update customer ledger")
	}
	return nil
}

// Delete removes an order and its items, subtracting the order's total from
// the customer's cumulative spend and unconditionally overwriting the tier.
// Stock decremented at creation is intentionally not restored.
func (s *Service) Delete(ctx context.Context, orderID, customerID int64) error {
	return s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.Orders().GetByID(ctx, orderID, customerID)
		if err != nil {
			return err
		}

		cust, err := tx.Customers().GetByID(ctx, customerID)
		if err != nil {
			return err
		}

		newSpent := cust.TotalSpent.Sub(o.TotalAmount)
		tierID, err := s.recomputeTier(ctx, tx, newSpent)
		if err != nil {
			return err
		}
		if err := tx.Customers().UpdateLedger(ctx, cust.ID, newSpent, tierID); err != nil {
			return errors.Wrap(err, "update customer ledger")
		}

		if err := tx.Orders().Delete(ctx, o.ID); err != nil {
			return errors.Wrap(err, "delete order")
		}
		return nil
	})
}

// Get returns a single order with its items. Orders owned by other customers
// are reported as not found.
func (s *Service) Get(ctx context.Context, orderID, customerID int64) (*OrderResult, error) {
	var result *OrderResult
	err := s.store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.Orders().GetByID(ctx, orderID, customerID)
		if err != nil {
			return err
		}
		result, err = buildResult(ctx, tx, o)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListByCustomer returns all of a customer's orders with their items.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]OrderResult, error) {
	var results []OrderResult
	err := s.store.WithTx(ctx, func(tx Tx) error {
		orders, err := tx.Orders().ListByCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		results = make([]OrderResult, 0, len(orders))
		for i := range orders {
			r, err := buildResult(ctx, tx, &orders[i])
			if err != nil {
				return err
			}
			results = append(results, *r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListAll returns every order in the system with its items, for the admin
// listing.
func (s *Service) ListAll(ctx context.Context) ([]OrderResult, error) {
	var results []OrderResult
	err := s.store.WithTx(ctx, func(tx Tx) error {
		orders, err := tx.Orders().ListAll(ctx)
		if err != nil {
			return err
		}
		results = make([]OrderResult, 0, len(orders))
		for i := range orders {
			r, err := buildResult(ctx, tx, &orders[i])
			if err != nil {
				return err
			}
			results = append(results, *r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// recomputeTier loads the ordered tier table and returns the qualifying tier
// id, or nil when none qualifies.
func (s *Service) recomputeTier(ctx context.Context, tx Tx, spent decimal.Decimal) (*int64, error) {
	tiers, err := tx.Tiers().List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list loyalty tiers")
	}
	if id, ok := loyalty.HighestQualifying(tiers, spent); ok {
		return &id, nil
	}
	return nil, nil
}

// resolveProducts fetches every referenced product in one batch, optionally
// locking the rows, and reports the full set of missing ids.
func resolveProducts(ctx context.Context, tx Tx, items []ItemRequest, forUpdate bool) (map[int64]productInfo, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	// Deterministic lock order avoids deadlocks between concurrent creates.
	slices.Sort(ids)

	if len(ids) == 0 {
		return map[int64]productInfo{}, nil
	}

	fetch := tx.Products().GetByIDs
	if forUpdate {
		fetch = tx.Products().GetByIDsForUpdate
	}
	fetched, err := fetch(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	found := make(map[int64]productInfo, len(fetched))
	for _, p := range fetched {
		found[p.ID] = productInfo{Price: p.Price, StockQuantity: p.StockQuantity}
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &ProductNotFoundError{ProductIDs: missing}
	}
	return found, nil
}

type productInfo struct {
	Price         decimal.Decimal
	StockQuantity int64
}

// buildResult reloads the order's items and assembles the API-facing result.
func buildResult(ctx context.Context, tx Tx, o *Order) (*OrderResult, error) {
	items, err := tx.Orders().ListItems(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list order items")
	}

	result := &OrderResult{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount,
		OrderDate:   o.OrderDate,
		Items:       make([]ItemResult, len(items)),
	}
	for i, item := range items {
		result.Items[i] = ItemResult{
			OrderItemID:     item.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		}
	}
	return result, nil
}
