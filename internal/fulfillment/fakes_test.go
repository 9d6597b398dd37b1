package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fashon-shop/fulfillment/internal/domain"
)

// memStores is an in-memory Stores implementation. InTx snapshots the whole
// state up front and restores it when the callback fails, mirroring the
// all-or-nothing behavior of the Postgres transaction.
type memStores struct {
	state *memState

	// deductErr forces Ledger().Deduct to fail for a given variant ID, to
	// exercise rollback of partially applied checkouts.
	deductErr map[string]error
}

type memState struct {
	seq       int
	users     map[string]*domain.User
	variants  map[string]*domain.Variant
	carts     map[string]*domain.Cart
	cartItems map[string]*domain.CartItem
	orders    map[string]*domain.Order
	payments  map[string]*domain.Payment
	ledger    []domain.StockTransaction
}

func newMemStores() *memStores {
	return &memStores{
		state: &memState{
			users:     map[string]*domain.User{},
			variants:  map[string]*domain.Variant{},
			carts:     map[string]*domain.Cart{},
			cartItems: map[string]*domain.CartItem{},
			orders:    map[string]*domain.Order{},
			payments:  map[string]*domain.Payment{},
		},
		deductErr: map[string]error{},
	}
}

func (s *memState) nextID() string {
	s.seq++
	return fmt.Sprintf("id-%06d", s.seq)
}

func (s *memState) clone() *memState {
	c := &memState{
		seq:       s.seq,
		users:     map[string]*domain.User{},
		variants:  map[string]*domain.Variant{},
		carts:     map[string]*domain.Cart{},
		cartItems: map[string]*domain.CartItem{},
		orders:    map[string]*domain.Order{},
		payments:  map[string]*domain.Payment{},
		ledger:    append([]domain.StockTransaction(nil), s.ledger...),
	}
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.variants {
		variant := *v
		c.variants[k] = &variant
	}
	for k, v := range s.carts {
		cart := *v
		cart.Items = nil
		c.carts[k] = &cart
	}
	for k, v := range s.cartItems {
		item := *v
		item.Variant = nil
		c.cartItems[k] = &item
	}
	for k, v := range s.orders {
		order := *v
		order.Items = append([]domain.OrderItem(nil), v.Items...)
		c.orders[k] = &order
	}
	for k, v := range s.payments {
		p := *v
		c.payments[k] = &p
	}
	return c
}

func (m *memStores) Users() UserStore       { return memUsers{m} }
func (m *memStores) Catalog() CatalogStore  { return memCatalog{m} }
func (m *memStores) Carts() CartStore       { return memCarts{m} }
func (m *memStores) Orders() OrderStore     { return memOrders{m} }
func (m *memStores) Payments() PaymentStore { return memPayments{m} }
func (m *memStores) Ledger() StockLedger    { return memLedger{m} }

func (m *memStores) InTx(ctx context.Context, fn func(Stores) error) error {
	snapshot := m.state.clone()
	if err := fn(m); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

// Seeding helpers.

func (m *memStores) addUser(email, name string) *domain.User {
	user := &domain.User{ID: m.state.nextID(), Email: email, FullName: name, CreatedAt: time.Now()}
	m.state.users[user.ID] = user
	return user
}

func (m *memStores) addVariant(sku, color, size string, stock int, basePrice, adjustment string) *domain.Variant {
	v := &domain.Variant{
		ID:              m.state.nextID(),
		ProductID:       m.state.nextID(),
		ProductName:     "Basic Tee",
		BasePrice:       decimal.RequireFromString(basePrice),
		SKU:             sku,
		Color:           color,
		Size:            size,
		StockQuantity:   stock,
		PriceAdjustment: decimal.RequireFromString(adjustment),
		IsAvailable:     true,
	}
	m.state.variants[v.ID] = v
	return v
}

type memUsers struct{ m *memStores }

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.m.state.users {
		if u.Email == email && !u.IsDeleted() {
			user := *u
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.m.state.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := *u
	return &user, nil
}

type memCatalog struct{ m *memStores }

func (r memCatalog) FindVariant(_ context.Context, id string) (*domain.Variant, error) {
	v, ok := r.m.state.variants[id]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	variant := *v
	return &variant, nil
}

func (r memCatalog) FindVariantBySKU(_ context.Context, sku string) (*domain.Variant, error) {
	for _, v := range r.m.state.variants {
		if v.SKU == sku {
			variant := *v
			return &variant, nil
		}
	}
	return nil, domain.ErrVariantNotFound
}

type memCarts struct{ m *memStores }

func (r memCarts) cartByUser(userID string) *domain.Cart {
	for _, c := range r.m.state.carts {
		if c.UserID == userID {
			return c
		}
	}
	return nil
}

func (r memCarts) itemsOf(cartID string) []domain.CartItem {
	var items []domain.CartItem
	for _, item := range r.m.state.cartItems {
		if item.CartID == cartID {
			copied := *item
			copied.Variant = r.m.state.variants[item.VariantID]
			items = append(items, copied)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (r memCarts) GetByUserWithItems(_ context.Context, userID string) (*domain.Cart, error) {
	c := r.cartByUser(userID)
	if c == nil {
		return nil, domain.ErrCartNotFound
	}
	cart := *c
	cart.Items = r.itemsOf(c.ID)
	return &cart, nil
}

func (r memCarts) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	if c := r.cartByUser(userID); c != nil {
		return r.GetByUserWithItems(ctx, userID)
	}
	c := &domain.Cart{ID: r.m.state.nextID(), UserID: userID, CreatedAt: time.Now()}
	r.m.state.carts[c.ID] = c
	cart := *c
	return &cart, nil
}

func (r memCarts) FindItem(_ context.Context, itemID string) (*domain.CartItem, error) {
	item, ok := r.m.state.cartItems[itemID]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	copied := *item
	return &copied, nil
}

func (r memCarts) FindItemByVariant(_ context.Context, cartID, variantID string) (*domain.CartItem, error) {
	for _, item := range r.m.state.cartItems {
		if item.CartID == cartID && item.VariantID == variantID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, domain.ErrCartItemNotFound
}

func (r memCarts) AddItem(_ context.Context, item *domain.CartItem) error {
	stored := *item
	stored.ID = r.m.state.nextID()
	stored.Variant = nil
	stored.CreatedAt = time.Now()
	r.m.state.cartItems[stored.ID] = &stored
	return nil
}

func (r memCarts) UpdateItemQuantity(_ context.Context, itemID string, quantity int) error {
	item, ok := r.m.state.cartItems[itemID]
	if !ok {
		return domain.ErrCartItemNotFound
	}
	item.Quantity = quantity
	return nil
}

func (r memCarts) DeleteItem(_ context.Context, itemID string) error {
	delete(r.m.state.cartItems, itemID)
	return nil
}

func (r memCarts) ClearItems(_ context.Context, cartID string) error {
	for id, item := range r.m.state.cartItems {
		if item.CartID == cartID {
			delete(r.m.state.cartItems, id)
		}
	}
	return nil
}

type memOrders struct{ m *memStores }

func (r memOrders) Create(_ context.Context, order *domain.Order) error {
	for _, existing := range r.m.state.orders {
		if existing.OrderCode == order.OrderCode {
			return domain.ErrDuplicateOrderCode
		}
	}
	order.ID = r.m.state.nextID()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = r.m.state.nextID()
		order.Items[i].OrderID = order.ID
	}
	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	r.m.state.orders[stored.ID] = &stored
	return nil
}

func (r memOrders) get(orderCode string) *domain.Order {
	for _, o := range r.m.state.orders {
		if o.OrderCode == orderCode {
			order := *o
			order.Items = append([]domain.OrderItem(nil), o.Items...)
			return &order
		}
	}
	return nil
}

func (r memOrders) GetByCode(_ context.Context, orderCode string) (*domain.Order, error) {
	if order := r.get(orderCode); order != nil {
		return order, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (r memOrders) GetByCodeForUser(_ context.Context, orderCode, userID string) (*domain.Order, error) {
	order := r.get(orderCode)
	if order == nil || order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (r memOrders) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	order, ok := r.m.state.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

func (r memOrders) list(filter func(*domain.Order) bool, page, size int) ([]domain.Order, int, error) {
	var matched []domain.Order
	for _, o := range r.m.state.orders {
		if filter(o) {
			order := *o
			order.Items = append([]domain.OrderItem(nil), o.Items...)
			matched = append(matched, order)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r memOrders) ListByUser(_ context.Context, userID string, page, size int) ([]domain.Order, int, error) {
	return r.list(func(o *domain.Order) bool { return o.UserID == userID }, page, size)
}

func (r memOrders) ListAll(_ context.Context, page, size int) ([]domain.Order, int, error) {
	return r.list(func(*domain.Order) bool { return true }, page, size)
}

func (r memOrders) ListByStatus(_ context.Context, status domain.OrderStatus, page, size int) ([]domain.Order, int, error) {
	return r.list(func(o *domain.Order) bool { return o.Status == status }, page, size)
}

type memPayments struct{ m *memStores }

func (r memPayments) Create(_ context.Context, payment *domain.Payment) error {
	payment.ID = r.m.state.nextID()
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = payment.CreatedAt
	stored := *payment
	r.m.state.payments[stored.ID] = &stored
	return nil
}

func (r memPayments) Update(_ context.Context, payment *domain.Payment) error {
	if _, ok := r.m.state.payments[payment.ID]; !ok {
		return domain.ErrPaymentNotFound
	}
	stored := *payment
	stored.UpdatedAt = time.Now()
	r.m.state.payments[stored.ID] = &stored
	return nil
}

func (r memPayments) byOrder(orderID string) []domain.Payment {
	var payments []domain.Payment
	for _, p := range r.m.state.payments {
		if p.OrderID == orderID {
			payments = append(payments, *p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].ID > payments[j].ID })
	return payments
}

func (r memPayments) LatestByOrder(_ context.Context, orderID string) (*domain.Payment, error) {
	payments := r.byOrder(orderID)
	if len(payments) == 0 {
		return nil, domain.ErrPaymentNotFound
	}
	return &payments[0], nil
}

func (r memPayments) ListByOrder(_ context.Context, orderID string) ([]domain.Payment, error) {
	return r.byOrder(orderID), nil
}

func (r memPayments) List(_ context.Context, status *domain.PaymentStatus, method *domain.PaymentMethod, page, size int) ([]domain.Payment, int, error) {
	var matched []domain.Payment
	for _, p := range r.m.state.payments {
		if status != nil && p.Status != *status {
			continue
		}
		if method != nil && p.Method != *method {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	start := page * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r memPayments) IsOrderPaid(_ context.Context, orderID string) (bool, error) {
	for _, p := range r.m.state.payments {
		if p.OrderID == orderID && p.Status == domain.PaymentStatusPaid {
			return true, nil
		}
	}
	return false, nil
}

type memLedger struct{ m *memStores }

func (r memLedger) append(variantID string, delta int, reason string, orderID *string, resulting int) *domain.StockTransaction {
	txn := domain.StockTransaction{
		ID:             r.m.state.nextID(),
		VariantID:      variantID,
		QuantityDelta:  delta,
		Reason:         reason,
		OrderID:        orderID,
		ResultingStock: resulting,
		CreatedAt:      time.Now(),
	}
	r.m.state.ledger = append(r.m.state.ledger, txn)
	return &txn
}

func (r memLedger) Deduct(_ context.Context, variantID string, quantity int, reason string, orderID *string) (*domain.StockTransaction, error) {
	if err := r.m.deductErr[variantID]; err != nil {
		return nil, err
	}
	v, ok := r.m.state.variants[variantID]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	if v.StockQuantity < quantity {
		return nil, &domain.InsufficientStockError{SKU: v.SKU, Available: v.StockQuantity, Requested: quantity}
	}
	v.StockQuantity -= quantity
	return r.append(variantID, -quantity, reason, orderID, v.StockQuantity), nil
}

func (r memLedger) Add(_ context.Context, variantID string, quantity int, reason string, orderID *string) (*domain.StockTransaction, error) {
	v, ok := r.m.state.variants[variantID]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	v.StockQuantity += quantity
	return r.append(variantID, quantity, reason, orderID, v.StockQuantity), nil
}

func (r memLedger) HasEnoughStock(_ context.Context, variantID string, quantity int) (bool, error) {
	v, ok := r.m.state.variants[variantID]
	if !ok {
		return false, nil
	}
	return v.StockQuantity >= quantity, nil
}

func (r memLedger) CurrentStock(_ context.Context, variantID string) (int, error) {
	v, ok := r.m.state.variants[variantID]
	if !ok {
		return 0, nil
	}
	return v.StockQuantity, nil
}

func (r memLedger) TransactionsForVariant(_ context.Context, variantID string) ([]domain.StockTransaction, error) {
	var txns []domain.StockTransaction
	for _, txn := range r.m.state.ledger {
		if txn.VariantID == variantID {
			txns = append(txns, txn)
		}
	}
	return txns, nil
}

// capturedEvent records one Publish call for assertions.
type capturedEvent struct {
	Topic string
	Key   string
	Event any
}

type capturePublisher struct {
	events []capturedEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, topic, key string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, capturedEvent{Topic: topic, Key: key, Event: event})
	return nil
}
