package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dungnguyen2112/FLowershop/internal/domain/order"
)

type orderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required,min=1"`
	Quantity  int64 `json:"quantity" binding:"required,min=1"`
}

type orderRequest struct {
	OrderDate *time.Time         `json:"order_date"`
	Items     []orderItemRequest `json:"items" binding:"required"`
}

type orderUpdateRequest struct {
	OrderDate *time.Time          `json:"order_date"`
	Items     *[]orderItemRequest `json:"items"`
}

type orderItemResponse struct {
	OrderItemID     int64   `json:"order_item_id"`
	ProductID       int64   `json:"product_id"`
	Quantity        int64   `json:"quantity"`
	PriceAtPurchase float64 `json:"price_at_purchase"`
}

type orderResponse struct {
	OrderID     int64               `json:"order_id"`
	CustomerID  int64               `json:"customer_id"`
	TotalAmount float64             `json:"total_amount"`
	OrderDate   time.Time           `json:"order_date"`
	Items       []orderItemResponse `json:"items"`
}

func toItemRequests(items []orderItemRequest) []order.ItemRequest {
	out := make([]order.ItemRequest, len(items))
	for i, item := range items {
		out[i] = order.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return out
}

func orderToResponse(result *order.OrderResult) orderResponse {
	items := make([]orderItemResponse, len(result.Items))
	for i, item := range result.Items {
		items[i] = orderItemResponse{
			OrderItemID:     item.OrderItemID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase.InexactFloat64(),
		}
	}
	return orderResponse{
		OrderID:     result.OrderID,
		CustomerID:  result.CustomerID,
		TotalAmount: result.TotalAmount.InexactFloat64(),
		OrderDate:   result.OrderDate,
		Items:       items,
	}
}

func (h *Handler) createOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.orders.Create(c.Request.Context(), order.CreateOrderRequest{
		CustomerID: currentClaims(c).CustomerID,
		Items:      toItemRequests(req.Items),
		OrderDate:  req.OrderDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderToResponse(result))
}

func (h *Handler) getOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.orders.Get(c.Request.Context(), id, currentClaims(c).CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderToResponse(result))
}

func (h *Handler) listOrders(c *gin.Context) {
	results, err := h.orders.ListByCustomer(c.Request.Context(), currentClaims(c).CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]orderResponse, len(results))
	for i := range results {
		resp[i] = orderToResponse(&results[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req orderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := order.UpdateOrderRequest{
		OrderID:    id,
		CustomerID: currentClaims(c).CustomerID,
		OrderDate:  req.OrderDate,
	}
	if req.Items != nil {
		items := toItemRequests(*req.Items)
		update.Items = &items
	}

	result, err := h.orders.Update(c.Request.Context(), update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderToResponse(result))
}

func (h *Handler) deleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id, currentClaims(c).CustomerID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
