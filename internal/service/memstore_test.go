package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"windreseller/internal/models"
)

// memStore is an in-memory Store for tests. A single mutex held for
// the whole transaction stands in for the row locks of the SQL
// implementation; state is cloned at Tx start and swapped in only on
// success, so a failed fn rolls back.
type memStore struct {
	mu   sync.Mutex
	data *memData

	failAppendLog bool
}

type memData struct {
	orders      map[uint]models.Order
	seats       map[uint]models.Seat
	users       map[uint]models.User
	wallets     map[uint]models.Wallet // keyed by user id
	logs        []models.OrderLog
	receipts    map[uint]models.Receipt // keyed by order id
	utm         map[string]models.UtmStat
	nextOrderID uint
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		orders:      map[uint]models.Order{},
		seats:       map[uint]models.Seat{},
		users:       map[uint]models.User{},
		wallets:     map[uint]models.Wallet{},
		receipts:    map[uint]models.Receipt{},
		utm:         map[string]models.UtmStat{},
		nextOrderID: 1,
	}}
}

func (d *memData) clone() *memData {
	c := &memData{
		orders:      make(map[uint]models.Order, len(d.orders)),
		seats:       make(map[uint]models.Seat, len(d.seats)),
		users:       make(map[uint]models.User, len(d.users)),
		wallets:     make(map[uint]models.Wallet, len(d.wallets)),
		receipts:    make(map[uint]models.Receipt, len(d.receipts)),
		utm:         make(map[string]models.UtmStat, len(d.utm)),
		logs:        append([]models.OrderLog(nil), d.logs...),
		nextOrderID: d.nextOrderID,
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	for k, v := range d.seats {
		c.seats[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.wallets {
		c.wallets[k] = v
	}
	for k, v := range d.receipts {
		c.receipts[k] = v
	}
	for k, v := range d.utm {
		c.utm[k] = v
	}
	return c
}

func (m *memStore) Tx(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := m.data.clone()
	tx := &memTx{data: staged, failAppendLog: m.failAppendLog}
	if err := fn(tx); err != nil {
		return err
	}
	m.data = staged
	return nil
}

// Non-transactional calls delegate to a one-shot transaction.
func (m *memStore) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).GetOrder(ctx, id)
}

func (m *memStore) SaveOrder(ctx context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).SaveOrder(ctx, o)
}

func (m *memStore) DeleteOrder(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).DeleteOrder(ctx, id)
}

func (m *memStore) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).CreateReceipt(ctx, r)
}

func (m *memStore) GetSeat(ctx context.Context, id uint) (*models.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).GetSeat(ctx, id)
}

func (m *memStore) FindAvailableSeat(ctx context.Context) (*models.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).FindAvailableSeat(ctx)
}

func (m *memStore) SaveSeat(ctx context.Context, s *models.Seat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).SaveSeat(ctx, s)
}

func (m *memStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).GetUser(ctx, id)
}

func (m *memStore) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).GetWallet(ctx, userID)
}

func (m *memStore) SaveWallet(ctx context.Context, w *models.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).SaveWallet(ctx, w)
}

func (m *memStore) AppendLog(ctx context.Context, orderID *uint, event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data, failAppendLog: m.failAppendLog}).AppendLog(ctx, orderID, event)
}

func (m *memStore) IncrementUtm(ctx context.Context, keyword string, starts, buys, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memTx{data: m.data}).IncrementUtm(ctx, keyword, starts, buys, amount)
}

// memTx operates on staged data while the store mutex is held.
type memTx struct {
	data          *memData
	failAppendLog bool
}

func (t *memTx) Tx(ctx context.Context, fn func(tx Store) error) error {
	return fn(t) // already inside a transaction
}

func (t *memTx) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	o, ok := t.data.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (t *memTx) SaveOrder(ctx context.Context, o *models.Order) error {
	if o.ID == 0 {
		o.ID = t.data.nextOrderID
		t.data.nextOrderID++
	}
	t.data.orders[o.ID] = *o
	return nil
}

func (t *memTx) DeleteOrder(ctx context.Context, id uint) error {
	delete(t.data.orders, id)
	delete(t.data.receipts, id)
	kept := t.data.logs[:0]
	for _, l := range t.data.logs {
		if l.OrderID == nil || *l.OrderID != id {
			kept = append(kept, l)
		}
	}
	t.data.logs = kept
	return nil
}

func (t *memTx) CreateReceipt(ctx context.Context, r *models.Receipt) error {
	t.data.receipts[r.OrderID] = *r
	return nil
}

func (t *memTx) GetSeat(ctx context.Context, id uint) (*models.Seat, error) {
	s, ok := t.data.seats[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (t *memTx) FindAvailableSeat(ctx context.Context) (*models.Seat, error) {
	var best *models.Seat
	for id := range t.data.seats {
		s := t.data.seats[id]
		if s.Status != models.SeatStatusActive || s.Sold >= s.MaxSlots {
			continue
		}
		if best == nil || s.Sold > best.Sold || (s.Sold == best.Sold && s.ID < best.ID) {
			c := s
			best = &c
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (t *memTx) SaveSeat(ctx context.Context, s *models.Seat) error {
	t.data.seats[s.ID] = *s
	return nil
}

func (t *memTx) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, ok := t.data.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (t *memTx) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	w, ok := t.data.wallets[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &w, nil
}

func (t *memTx) SaveWallet(ctx context.Context, w *models.Wallet) error {
	t.data.wallets[w.UserID] = *w
	return nil
}

func (t *memTx) AppendLog(ctx context.Context, orderID *uint, event string) error {
	if t.failAppendLog {
		return errFailInjected
	}
	t.data.logs = append(t.data.logs, models.OrderLog{OrderID: orderID, Event: event})
	return nil
}

func (t *memTx) IncrementUtm(ctx context.Context, keyword string, starts, buys, amount int64) error {
	u := t.data.utm[keyword]
	u.Keyword = keyword
	u.Starts += starts
	u.Buys += buys
	u.Amount += amount
	t.data.utm[keyword] = u
	return nil
}

// ── test fixtures ─────────────────────────────────────────────────────

var errFailInjected = errors.New("injected storage failure")

// testClock is a settable Clock for driving the 2FA cooldown window.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (n *fakeNotifier) NotifyOperator(text string) {
	n.mu.Lock()
	n.texts = append(n.texts, text)
	n.mu.Unlock()
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.texts)
}

func newTestService() (*Service, *memStore, *fakeNotifier) {
	store := newMemStore()
	notifier := &fakeNotifier{}
	auditor := NewAuditor(store, notifier, zap.NewNop())
	return New(store, auditor, zap.NewNop()), store, notifier
}

// seedUser registers a user plus an empty wallet.
func seedUser(store *memStore, id uint, referrer *uint) {
	store.data.users[id] = models.User{ID: id, TgID: int64(1000 + id), Referrer: referrer}
	store.data.wallets[id] = models.Wallet{ID: id, UserID: id}
}

func seedSeat(store *memStore, id uint, sold, maxSlots int, status string) {
	store.data.seats[id] = models.Seat{ID: id, Email: "seat@example.com", Sold: sold, MaxSlots: maxSlots, Status: status}
}
