package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/store"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the postgres store.
type memStore struct {
	mu sync.Mutex

	nextID        int64
	products      map[int64]*models.Product
	carts         map[int64]map[int64]int
	wishlists     map[int64]map[int64]bool
	addresses     []models.Address
	orders        map[int64]*models.Order
	items         map[int64][]models.OrderLineItem
	orderNumbers  map[string]bool
	users         map[int64]*models.User
	tokens        map[string]*models.AccessToken
	refunds       map[int64]*models.Refund
	notifications []models.AdminNotification
	processed     map[string]bool
	stats         map[string]models.MonthStats

	placeErrs  []error
	placeCalls int
	reads      int
	clearErr   error
}

func newMemStore() *memStore {
	return &memStore{
		products:     map[int64]*models.Product{},
		carts:        map[int64]map[int64]int{},
		wishlists:    map[int64]map[int64]bool{},
		orders:       map[int64]*models.Order{},
		items:        map[int64][]models.OrderLineItem{},
		orderNumbers: map[string]bool{},
		users:        map[int64]*models.User{},
		tokens:       map[string]*models.AccessToken{},
		refunds:      map[int64]*models.Refund{},
		processed:    map[string]bool{},
		stats:        map[string]models.MonthStats{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addProduct(name string, price string, stock int, active bool) *models.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Product{ID: m.id(), Name: name, Price: decimal.RequireFromString(price), Stock: stock, IsActive: active, CreatedAt: time.Now()}
	m.products[p.ID] = p
	return p
}

func (m *memStore) addUser(name, role, status string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), Name: name, Email: strings.ToLower(name) + "@example.com", Role: role, Status: status}
	m.users[u.ID] = u
	return u
}

// products

func (m *memStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	out := []models.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		if f.ActiveOnly && !p.IsActive {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memStore) LatestActiveProducts(ctx context.Context, limit int) ([]models.Product, error) {
	all, _, _ := m.ListProducts(ctx, models.ProductFilter{ActiveOnly: true})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memStore) CreateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *memStore) DeleteProduct(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, items := range m.items {
		for _, it := range items {
			if it.ProductID == id {
				return store.ErrReferenced
			}
		}
	}
	delete(m.products, id)
	return nil
}

// carts

func (m *memStore) ListCart(ctx context.Context, userID int64) ([]models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := []models.CartLine{}
	for pid, qty := range m.carts[userID] {
		p := m.products[pid]
		lines = append(lines, models.CartLine{
			CartEntry: models.CartEntry{UserID: userID, ProductID: pid, Quantity: qty},
			Name:      p.Name,
			Price:     p.Price,
			Stock:     p.Stock,
			IsActive:  p.IsActive,
		})
	}
	return lines, nil
}

func (m *memStore) GetCartEntry(ctx context.Context, userID, productID int64) (*models.CartEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qty, ok := m.carts[userID][productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &models.CartEntry{UserID: userID, ProductID: productID, Quantity: qty}, nil
}

func (m *memStore) AddToCart(ctx context.Context, userID, productID int64, quantity int) (*models.CartEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.carts[userID] == nil {
		m.carts[userID] = map[int64]int{}
	}
	m.carts[userID][productID] += quantity
	return &models.CartEntry{UserID: userID, ProductID: productID, Quantity: m.carts[userID][productID]}, nil
}

func (m *memStore) SetCartQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[userID][productID]; !ok {
		return store.ErrNotFound
	}
	m.carts[userID][productID] = quantity
	return nil
}

func (m *memStore) RemoveFromCart(ctx context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[userID][productID]; !ok {
		return store.ErrNotFound
	}
	delete(m.carts[userID], productID)
	return nil
}

func (m *memStore) ClearCart(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return m.clearErr
	}
	delete(m.carts, userID)
	return nil
}

func (m *memStore) CountCart(ctx context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, qty := range m.carts[userID] {
		n += qty
	}
	return n, nil
}

// wishlists

func (m *memStore) ListWishlist(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.WishlistItem{}
	for pid := range m.wishlists[userID] {
		out = append(out, models.WishlistItem{UserID: userID, ProductID: pid, Name: m.products[pid].Name})
	}
	return out, nil
}

func (m *memStore) AddToWishlist(ctx context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.wishlists[userID] == nil {
		m.wishlists[userID] = map[int64]bool{}
	}
	m.wishlists[userID][productID] = true
	return nil
}

func (m *memStore) RemoveFromWishlist(ctx context.Context, userID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.wishlists[userID][productID] {
		return store.ErrNotFound
	}
	delete(m.wishlists[userID], productID)
	return nil
}

func (m *memStore) CountWishlist(ctx context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.wishlists[userID]), nil
}

// addresses

func (m *memStore) ListAddresses(ctx context.Context, userID int64) ([]models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Address{}
	for _, a := range m.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetAddress(ctx context.Context, userID, id int64) (*models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.addresses {
		if a.UserID == userID && a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) GetDefaultAddress(ctx context.Context, userID int64) (*models.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.Address
	for i := range m.addresses {
		a := m.addresses[i]
		if a.UserID != userID {
			continue
		}
		if found == nil || (a.IsDefault && !found.IsDefault) {
			found = &a
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (m *memStore) CreateAddress(ctx context.Context, addr *models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	first := true
	for i := range m.addresses {
		if m.addresses[i].UserID == addr.UserID {
			first = false
			if addr.IsDefault {
				m.addresses[i].IsDefault = false
			}
		}
	}
	if first {
		addr.IsDefault = true
	}
	addr.ID = m.id()
	m.addresses = append(m.addresses, *addr)
	return nil
}

func (m *memStore) UpdateAddress(ctx context.Context, addr *models.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.addresses {
		a := &m.addresses[i]
		if a.UserID != addr.UserID {
			continue
		}
		if a.ID == addr.ID {
			*a = *addr
		} else if addr.IsDefault {
			a.IsDefault = false
		}
	}
	return nil
}

func (m *memStore) DeleteAddress(ctx context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.addresses {
		if a.UserID == userID && a.ID == id {
			m.addresses = append(m.addresses[:i], m.addresses[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// orders

func (m *memStore) PlaceOrder(ctx context.Context, order *models.Order, items []models.OrderLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placeCalls++
	if len(m.placeErrs) > 0 {
		err := m.placeErrs[0]
		m.placeErrs = m.placeErrs[1:]
		return err
	}
	if m.orderNumbers[order.OrderNumber] {
		return store.ErrDuplicateOrderNumber
	}
	if order.IdempotencyKey != nil {
		for _, o := range m.orders {
			if o.UserID == order.UserID && o.IdempotencyKey != nil && *o.IdempotencyKey == *order.IdempotencyKey {
				return store.ErrDuplicateIdempotency
			}
		}
	}
	for _, it := range items {
		p, ok := m.products[it.ProductID]
		if !ok || !p.IsActive || p.Stock < it.Quantity {
			return store.ErrInsufficientStock
		}
	}
	for _, it := range items {
		m.products[it.ProductID].Stock -= it.Quantity
	}

	order.ID = m.id()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	m.orders[order.ID] = &cp
	m.orderNumbers[order.OrderNumber] = true

	stored := make([]models.OrderLineItem, len(items))
	for i := range items {
		items[i].ID = m.id()
		items[i].OrderID = order.ID
		stored[i] = items[i]
	}
	m.items[order.ID] = stored
	return nil
}

func (m *memStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) GetOrderByIdempotencyKey(ctx context.Context, userID int64, key string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.UserID == userID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.OrderLineItem{}, m.items[orderID]...), nil
}

func (m *memStore) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.OrderSummary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.OrderSummary{}
	for _, o := range m.orders {
		if f.UserID != 0 && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Since != nil && o.CreatedAt.Before(*f.Since) {
			continue
		}
		if f.Search != "" && !strings.Contains(o.OrderNumber, f.Search) {
			continue
		}
		s := models.OrderSummary{Order: *o, ItemCount: len(m.items[o.ID])}
		if u, ok := m.users[o.UserID]; ok {
			s.CustomerName = u.Name
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := len(out)
	if f.PerPage > 0 && len(out) > f.PerPage {
		out = out[:f.PerPage]
	}
	return out, total, nil
}

func (m *memStore) TransitionOrder(ctx context.Context, orderID, ownerID int64, to string) (*models.Order, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || (ownerID != 0 && o.UserID != ownerID) {
		return nil, "", store.ErrNotFound
	}
	from := o.Status
	if !models.CanTransition(from, to) {
		return nil, from, store.ErrInvalidTransition
	}
	if to == models.OrderStatusCancelled {
		for _, it := range m.items[orderID] {
			if p, ok := m.products[it.ProductID]; ok {
				p.Stock += it.Quantity
			}
		}
	}
	o.Status = to
	cp := *o
	return &cp, from, nil
}

// users and tokens

func (m *memStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return store.ErrDuplicateEmail
		}
	}
	u.ID = m.id()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListUsersByRole(ctx context.Context, role string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memStore) UpdateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) DeleteUser(ctx context.Context, id int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.Role != role {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) CreateAccessToken(ctx context.Context, t *models.AccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens[t.ID] = &cp
	return nil
}

func (m *memStore) GetAccessToken(ctx context.Context, id string) (*models.AccessToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) RevokeAccessToken(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return store.ErrNotFound
	}
	t.RevokedAt = &at
	return nil
}

// refunds

func (m *memStore) ListRefunds(ctx context.Context) ([]models.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Refund{}
	for _, r := range m.refunds {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) GetRefund(ctx context.Context, id int64) (*models.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.refunds[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) CreateRefund(ctx context.Context, r *models.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.id()
	cp := *r
	m.refunds[r.ID] = &cp
	return nil
}

func (m *memStore) UpdateRefund(ctx context.Context, r *models.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.refunds[r.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *r
	m.refunds[r.ID] = &cp
	return nil
}

func (m *memStore) DeleteRefund(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.refunds[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.refunds, id)
	return nil
}

// notifications

func (m *memStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[eventID], nil
}

func (m *memStore) RecordNotification(ctx context.Context, eventType string, n *models.AdminNotification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed[n.EventID] {
		return false, nil
	}
	m.processed[n.EventID] = true
	n.ID = m.id()
	m.notifications = append(m.notifications, *n)
	return true, nil
}

func (m *memStore) ListNotifications(ctx context.Context, limit int) ([]models.AdminNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.AdminNotification{}, m.notifications...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// reports

func (m *memStore) MonthStats(ctx context.Context, from, to time.Time) (models.MonthStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[from.Format("2006-01")], nil
}

// fakeLocker is a single-process CheckoutLocker
type fakeLocker struct {
	mu      sync.Mutex
	held    map[string]string
	err     error
	acquire int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]string{}}
}

func (l *fakeLocker) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquire++
	if l.err != nil {
		return false, l.err
	}
	if _, ok := l.held[key]; ok {
		return false, nil
	}
	l.held[key] = owner
	return true, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == owner {
		delete(l.held, key)
	}
	return nil
}

// fakeLimiter allows a fixed number of hits per key
type fakeLimiter struct {
	mu   sync.Mutex
	hits map[string]int
	err  error
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.hits == nil {
		f.hits = map[string]int{}
	}
	f.hits[key]++
	return f.hits[key] <= limit, nil
}

func (f *fakeLimiter) ResetWindow(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.hits, key)
	return nil
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu        sync.Mutex
	placed    []*models.OrderPlacedEvent
	cancelled []*models.OrderCancelledEvent
	changed   []*models.OrderStatusChangedEvent
	refunds   []*models.RefundRequestedEvent
	err       error
}

func (p *recordingPublisher) PublishOrderPlaced(ctx context.Context, e *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
	return p.err
}

func (p *recordingPublisher) PublishOrderCancelled(ctx context.Context, e *models.OrderCancelledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, e)
	return p.err
}

func (p *recordingPublisher) PublishOrderStatusChanged(ctx context.Context, e *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, e)
	return p.err
}

func (p *recordingPublisher) PublishRefundRequested(ctx context.Context, e *models.RefundRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunds = append(p.refunds, e)
	return p.err
}

var errBoom = errors.New("boom")
