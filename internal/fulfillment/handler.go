package fulfillment

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fashon-shop/fulfillment/internal/domain"
	"github.com/fashon-shop/fulfillment/internal/telemetry"
)

// Handler exposes the orchestrator over HTTP. Identity arrives as the
// X-User-Email header set by the auth layer in front of this service; admin
// routes live under /admin/ and are assumed to be gated upstream.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	route := telemetry.WithHTTPRoute

	mux.HandleFunc("GET /cart", route(h.HandleGetCart))
	mux.HandleFunc("POST /cart/items", route(h.HandleAddToCart))
	mux.HandleFunc("PATCH /cart/items/{id}", route(h.HandleUpdateCartItem))
	mux.HandleFunc("DELETE /cart/items/{id}", route(h.HandleRemoveCartItem))
	mux.HandleFunc("DELETE /cart", route(h.HandleClearCart))

	mux.HandleFunc("POST /orders", route(h.HandleCreateOrder))
	mux.HandleFunc("GET /orders", route(h.HandleListMyOrders))
	mux.HandleFunc("GET /orders/{code}", route(h.HandleGetOrder))
	mux.HandleFunc("POST /orders/{code}/cancel", route(h.HandleCancelOrder))
	mux.HandleFunc("GET /orders/{code}/payments", route(h.HandleListOrderPayments))

	mux.HandleFunc("GET /admin/orders", route(h.HandleAdminListOrders))
	mux.HandleFunc("GET /admin/orders/{code}", route(h.HandleAdminGetOrder))
	mux.HandleFunc("PATCH /admin/orders/{code}/status", route(h.HandleUpdateOrderStatus))
	mux.HandleFunc("POST /admin/orders/{code}/cancel", route(h.HandleAdminCancelOrder))
	mux.HandleFunc("POST /admin/orders/{code}/payments/confirm", route(h.HandleConfirmPayment))
	mux.HandleFunc("POST /admin/orders/{code}/payments/fail", route(h.HandleMarkPaymentFailed))
	mux.HandleFunc("GET /admin/orders/{code}/payments", route(h.HandleAdminListOrderPayments))
	mux.HandleFunc("GET /admin/payments", route(h.HandleAdminListPayments))
}

func (h *Handler) userEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := r.Header.Get("X-User-Email")
	if email == "" {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return email, true
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), email)
	if err != nil {
		h.writeDomainError(w, err, "get cart")
		return
	}
	h.writeJSON(w, http.StatusOK, cart)
}

type addToCartRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	var req addToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VariantID == "" || req.Quantity < 1 {
		h.writeError(w, http.StatusBadRequest, "variant_id and a positive quantity are required")
		return
	}

	cart, err := h.service.AddToCart(r.Context(), email, req.VariantID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, err, "add to cart")
		return
	}
	h.writeJSON(w, http.StatusOK, cart)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.service.UpdateCartItem(r.Context(), email, r.PathValue("id"), req.Quantity)
	if err != nil {
		h.writeDomainError(w, err, "update cart item")
		return
	}
	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) HandleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	cart, err := h.service.RemoveCartItem(r.Context(), email, r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, err, "remove cart item")
		return
	}
	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) HandleClearCart(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearCart(r.Context(), email); err != nil {
		h.writeDomainError(w, err, "clear cart")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createOrderRequest struct {
	ShippingAddress string `json:"shipping_address"`
	Phone           string `json:"phone"`
	Note            string `json:"note"`
	PaymentMethod   string `json:"payment_method"`
}

func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	method, ok := domain.DecodePaymentMethod(req.PaymentMethod)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown payment method")
		return
	}
	if req.ShippingAddress == "" || req.Phone == "" {
		h.writeError(w, http.StatusBadRequest, "shipping_address and phone are required")
		return
	}

	order, err := h.service.CreateOrderFromCart(r.Context(), email, req.ShippingAddress, req.Phone, req.Note, method)
	if err != nil {
		h.writeDomainError(w, err, "create order")
		return
	}
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), email, r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err, "get order")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListMyOrders(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	page, size := pageParams(r)
	orders, err := h.service.ListMyOrders(r.Context(), email, page, size)
	if err != nil {
		h.writeDomainError(w, err, "list orders")
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleCancelOrder(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	order, err := h.service.CancelOrder(r.Context(), email, r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err, "cancel order")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListOrderPayments(w http.ResponseWriter, r *http.Request) {
	email, ok := h.userEmail(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListPaymentsForOrder(r.Context(), email, r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err, "list order payments")
		return
	}
	h.writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) HandleAdminGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrderForAdmin(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err, "get order")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleAdminListOrders(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.DecodeOrderStatus(raw)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "unknown order status")
			return
		}
		orders, err := h.service.ListOrdersByStatus(r.Context(), status, page, size)
		if err != nil {
			h.writeDomainError(w, err, "list orders")
			return
		}
		h.writeJSON(w, http.StatusOK, orders)
		return
	}

	orders, err := h.service.ListAllOrders(r.Context(), page, size)
	if err != nil {
		h.writeDomainError(w, err, "list orders")
		return
	}
	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, ok := domain.DecodeOrderStatus(req.Status)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "unknown order status")
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), r.PathValue("code"), status)
	if err != nil {
		h.writeDomainError(w, err, "update order status")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleAdminCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CancelOrderByAdmin(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err, "cancel order")
		return
	}
	h.writeJSON(w, http.StatusOK, order)
}

type confirmPaymentRequest struct {
	TransactionCode string `json:"transaction_code"`
	Notes           string `json:"notes"`
}

func (h *Handler) HandleConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.service.ConfirmPayment(r.Context(), r.PathValue("code"), req.TransactionCode, req.Notes)
	if err != nil {
		h.writeDomainError(w, err, "confirm payment")
		return
	}
	h.writeJSON(w, http.StatusOK, payment)
}

type markFailedRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) HandleMarkPaymentFailed(w http.ResponseWriter, r *http.Request) {
	var req markFailedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payment, err := h.service.MarkPaymentFailed(r.Context(), r.PathValue("code"), req.Reason)
	if err != nil {
		h.writeDomainError(w, err, "mark payment failed")
		return
	}
	h.writeJSON(w, http.StatusOK, payment)
}

func (h *Handler) HandleAdminListOrderPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPaymentsForOrderAsAdmin(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeDomainError(w, err, "list order payments")
		return
	}
	h.writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) HandleAdminListPayments(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)

	var status *domain.PaymentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s, ok := domain.DecodePaymentStatus(raw)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "unknown payment status")
			return
		}
		status = &s
	}

	var method *domain.PaymentMethod
	if raw := r.URL.Query().Get("method"); raw != "" {
		m, ok := domain.DecodePaymentMethod(raw)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "unknown payment method")
			return
		}
		method = &m
	}

	payments, err := h.service.ListAllPayments(r.Context(), status, method, page, size)
	if err != nil {
		h.writeDomainError(w, err, "list payments")
		return
	}
	h.writeJSON(w, http.StatusOK, payments)
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	return page, size
}

// writeDomainError maps the error taxonomy onto HTTP status codes without
// leaking internals for unexpected failures.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, op string) {
	var stockErr *domain.InsufficientStockError
	var transitionErr *domain.InvalidTransitionError

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrCartItemNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrPaymentNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &stockErr):
		h.writeError(w, http.StatusConflict, stockErr.Error())
	case errors.As(err, &transitionErr):
		h.writeError(w, http.StatusUnprocessableEntity, transitionErr.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrOrderNotCancellable),
		errors.Is(err, domain.ErrPaymentAlreadyPaid),
		errors.Is(err, domain.ErrPaymentAlreadyRefunded),
		errors.Is(err, domain.ErrCannotFailPaidPayment),
		errors.Is(err, domain.ErrCannotFailRefundedPayment),
		errors.Is(err, domain.ErrCannotRefundPendingPayment):
		h.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrDuplicateSKU),
		errors.Is(err, domain.ErrDuplicateEmail):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", "error", err, "op", op)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
