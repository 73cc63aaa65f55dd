package order

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kababistan/orderhub/internal/domain/cart"
	"github.com/kababistan/orderhub/internal/domain/pricing"
	"github.com/kababistan/orderhub/internal/domain/voucher"
)

// Confirmation preconditions.
var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidServiceType  = errors.New("invalid service type")
	ErrCustomerRequired    = errors.New("customer name and phone are required")
	ErrScheduleRequired    = errors.New("schedule date and time are required")
	ErrPartySizeRequired   = errors.New("party size is required for reservations")
	ErrCardDetailsRequired = errors.New("card payment requires a 16-digit number, expiry and CVV")

	// ErrNoActiveOrder is returned by operations that need a tracked order
	// when nothing is tracked.
	ErrNoActiveOrder = errors.New("no active order")
)

// ReminderWindowMinutes is the remaining-time threshold at which the
// reservation reminder fires.
const ReminderWindowMinutes = 10

// ProfileStore persists the customer contact profile captured at checkout.
type ProfileStore interface {
	Merge(ctx context.Context, customerID string, c Customer) error
}

// ConfirmRequest is the input for confirming an order from the current cart.
type ConfirmRequest struct {
	ServiceType         ServiceType
	Schedule            Schedule
	Customer            Customer
	Payment             Payment
	PartySize           string
	SpecialInstructions string
}

// Validate checks the confirmation preconditions. The session rejects the
// request before any mutation when these fail.
func (r ConfirmRequest) Validate() error {
	if !r.ServiceType.Valid() {
		return errors.Wrapf(ErrInvalidServiceType, "%q", r.ServiceType)
	}
	if strings.TrimSpace(r.Customer.Name) == "" || strings.TrimSpace(r.Customer.Phone) == "" {
		return ErrCustomerRequired
	}
	if !r.Schedule.Resolved() {
		return ErrScheduleRequired
	}
	if _, err := r.Schedule.MinuteOfDay(); err != nil {
		return errors.Wrap(ErrScheduleRequired, err.Error())
	}
	if r.ServiceType == ServiceReservation && strings.TrimSpace(r.PartySize) == "" {
		return ErrPartySizeRequired
	}
	if r.Payment.Method == PaymentCard {
		if !validCardNumber(r.Payment.CardNumber) ||
			strings.TrimSpace(r.Payment.CardExpiry) == "" ||
			strings.TrimSpace(r.Payment.CardCVV) == "" {
			return ErrCardDetailsRequired
		}
	}
	return nil
}

func validCardNumber(n string) bool {
	if len(n) != 16 {
		return false
	}
	for i := range len(n) {
		if n[i] < '0' || n[i] > '9' {
			return false
		}
	}
	return true
}

// tracking is the ephemeral per-session state for the customer's in-flight
// order, including the one-shot reminder and time-up guards.
type tracking struct {
	orderID         string
	confirmed       bool
	schedule        Schedule
	serviceType     ServiceType
	reminderFired   bool
	timeUpShownFor  string
	showReminder    bool
	reminderMessage string
	showTimeUp      bool
}

// Session is the order lifecycle manager for one customer: it owns the cart,
// the active voucher, the order history snapshot, and the active-order
// tracking the reservation timer polls. All methods are safe for concurrent
// use.
type Session struct {
	customerID string
	repo       Repository
	profiles   ProfileStore
	lg         *zap.Logger
	now        func() time.Time

	mu          sync.Mutex
	cart        *cart.Cart
	vouchers    *voucher.Resolver
	history     []Order
	historySeen bool
	tr          tracking
}

// NewSession creates the lifecycle manager for the given customer.
func NewSession(customerID string, repo Repository, profiles ProfileStore, lg *zap.Logger) *Session {
	return &Session{
		customerID: customerID,
		repo:       repo,
		profiles:   profiles,
		lg:         lg.With(zap.String("customer_id", customerID)),
		now:        time.Now,
		cart:       cart.New(),
		vouchers:   voucher.NewResolver(),
	}
}

// Run subscribes to the customer's order history and applies snapshots until
// ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	w, err := s.repo.WatchByCustomer(ctx, s.customerID)
	if err != nil {
		return errors.Wrap(err, "watch order history")
	}
	defer w.Stop()

	for snapshot := range w.C {
		s.onHistory(snapshot)
	}
	return nil
}

// onHistory replaces the history snapshot. Only the first snapshot the
// session sees may adopt an order as active: later deliveries echo this
// session's own writes, and re-adopting would resurrect an order the customer
// just resolved.
func (s *Session) onHistory(orders []Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = orders
	if s.historySeen {
		return
	}
	s.historySeen = true
	s.adoptLocked(orders)
}

// adoptLocked tracks the most recent live order so tracking survives
// restarts with the store as source of truth. Pending orders are skipped:
// their time-up prompt was already declined and they wait for the console.
func (s *Session) adoptLocked(orders []Order) {
	if s.tr.confirmed {
		return
	}
	for _, o := range orders {
		if o.Status.Terminal() || o.Status == StatusPending {
			continue
		}
		s.tr = tracking{
			orderID:     o.ID,
			confirmed:   true,
			schedule:    o.Schedule,
			serviceType: o.ServiceType,
		}
		s.lg.Info("adopted active order", zap.String("order_id", o.ID), zap.String("status", string(o.Status)))
		return
	}
}

// AddItem adds one unit of the item to the cart.
func (s *Session) AddItem(itemID, name string, unitPrice decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Add(itemID, name, unitPrice)
}

// IncreaseItem increments the quantity of a cart line.
func (s *Session) IncreaseItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Increase(itemID)
}

// DecreaseItem decrements the quantity of a cart line, floored at 1.
func (s *Session) DecreaseItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Decrease(itemID)
}

// RemoveItem deletes a cart line.
func (s *Session) RemoveItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Remove(itemID)
}

// ClearCart empties the cart.
func (s *Session) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
}

// CartLines returns a snapshot of the cart.
func (s *Session) CartLines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// ApplyVoucher applies a voucher code; unknown codes clear the active voucher
// and return voucher.ErrUnknownCode.
func (s *Session) ApplyVoucher(code string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vouchers.Apply(code)
}

// RemoveVoucher clears the active voucher.
func (s *Session) RemoveVoucher() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers.Remove()
}

// ActiveVoucher returns the active voucher code and rate, if any.
func (s *Session) ActiveVoucher() (string, decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vouchers.Active()
}

// Quote prices the current cart against the customer's history and active
// voucher.
func (s *Session) Quote() pricing.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quoteLocked()
}

func (s *Session) quoteLocked() pricing.Quote {
	return pricing.Calculate(s.cart.Lines(), len(s.history), s.vouchers.CurrentRate())
}

// History returns the customer's order history, newest first.
func (s *Session) History() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, len(s.history))
	copy(out, s.history)
	return out
}

// Confirm creates an order from the current cart and the request data,
// persists it, tracks it as active, and clears the cart and voucher. No state
// changes when validation or persistence fails.
func (s *Session) Confirm(ctx context.Context, req ConfirmRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.Empty() {
		return nil, ErrEmptyCart
	}

	q := s.quoteLocked()
	o := &Order{
		ID:                  NewID(req.ServiceType),
		CustomerID:          s.customerID,
		Lines:               s.cart.Lines(),
		Subtotal:            q.Subtotal,
		Discount:            q.Discount,
		Tax:                 q.Tax,
		Total:               q.Total,
		ServiceType:         req.ServiceType,
		Schedule:            req.Schedule,
		Status:              NewStatus(req.ServiceType),
		PaymentMethod:       req.Payment.Method,
		Customer:            req.Customer,
		PartySize:           req.PartySize,
		SpecialInstructions: req.SpecialInstructions,
		CreatedAt:           s.now(),
	}
	if req.Payment.Method == PaymentCard {
		o.CardNumber = req.Payment.CardNumber
		o.CardExpiry = req.Payment.CardExpiry
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.tr = tracking{
		orderID:     o.ID,
		confirmed:   true,
		schedule:    req.Schedule,
		serviceType: req.ServiceType,
	}
	s.vouchers.Remove()
	s.cart.Clear()
	s.history = append([]Order{*o}, s.history...)

	if err := s.profiles.Merge(ctx, s.customerID, req.Customer); err != nil {
		s.lg.Warn("save customer profile", zap.Error(err))
	}

	s.lg.Info("order confirmed",
		zap.String("order_id", o.ID),
		zap.String("service_type", string(o.ServiceType)),
		zap.String("total", o.Total.RoundBank(2).String()),
	)
	return o, nil
}

// Cancel writes Cancelled to the given order, or to the tracked active order
// when orderID is empty. Orders already in a terminal state are rejected with
// *InvalidTransitionError. Cancelling the tracked order resets the
// active-order tracking and the reminder guards.
func (s *Session) Cancel(ctx context.Context, orderID string) error {
	s.mu.Lock()
	id := orderID
	if id == "" {
		id = s.tr.orderID
	}
	s.mu.Unlock()
	if id == "" {
		return ErrNoActiveOrder
	}

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "get order %s", id)
	}
	if o.Status.Terminal() {
		return &InvalidTransitionError{ServiceType: o.ServiceType, From: o.Status, To: StatusCancelled}
	}

	err = s.repo.UpdateStatus(ctx, id, StatusCancelled)
	s.clearTracking(id)
	if err != nil {
		return errors.Wrapf(err, "cancel order %s", id)
	}
	return nil
}

// MarkReceived writes the service-type-appropriate terminal success status to
// the order and, when it is the tracked active order, resets the tracking so
// the timer stops polling a completed order. Orders already in a terminal
// state are rejected with *InvalidTransitionError.
func (s *Session) MarkReceived(ctx context.Context, orderID string) error {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return errors.Wrapf(err, "get order %s", orderID)
	}
	to := TerminalSuccess(o.ServiceType)
	if o.Status.Terminal() {
		return &InvalidTransitionError{ServiceType: o.ServiceType, From: o.Status, To: to}
	}
	if err := s.repo.UpdateStatus(ctx, orderID, to); err != nil {
		return errors.Wrapf(err, "mark order %s received", orderID)
	}
	s.clearTracking(orderID)
	return nil
}

// clearTracking resets the active-order tracking when orderID is the tracked
// order.
func (s *Session) clearTracking(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if orderID == s.tr.orderID {
		s.tr = tracking{}
	}
}

// OnTimeUpResponse resolves the time-up prompt for the tracked order:
// confirmed writes the terminal success status, declined writes Pending.
// Tracking is cleared regardless of the answer.
func (s *Session) OnTimeUpResponse(ctx context.Context, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.tr.orderID
	if id == "" {
		return ErrNoActiveOrder
	}

	status := StatusPending
	if confirmed {
		status = TerminalSuccess(s.tr.serviceType)
	}

	err := s.repo.UpdateStatus(ctx, id, status)
	s.tr = tracking{}
	if err != nil {
		return errors.Wrapf(err, "resolve order %s", id)
	}
	return nil
}

// DismissReminder hides the active reminder without touching its one-shot
// guard.
func (s *Session) DismissReminder() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tr.showReminder = false
}

// ActiveState is a read snapshot of the session's tracked order and prompt
// flags for the client.
type ActiveState struct {
	OrderID         string      `json:"orderId"`
	Confirmed       bool        `json:"confirmed"`
	ServiceType     ServiceType `json:"serviceType"`
	Schedule        Schedule    `json:"schedule"`
	ShowReminder    bool        `json:"showReminder"`
	ReminderMessage string      `json:"reminderMessage"`
	ShowTimeUp      bool        `json:"showTimeUp"`
}

// State returns the current active-order snapshot.
func (s *Session) State() ActiveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ActiveState{
		OrderID:         s.tr.orderID,
		Confirmed:       s.tr.confirmed,
		ServiceType:     s.tr.serviceType,
		Schedule:        s.tr.schedule,
		ShowReminder:    s.tr.showReminder,
		ReminderMessage: s.tr.reminderMessage,
		ShowTimeUp:      s.tr.showTimeUp,
	}
}

// EventKind classifies timer events.
type EventKind string

const (
	EventReminder EventKind = "reminder"
	EventTimeUp   EventKind = "time_up"
)

// TimerEvent is a reminder or time-up firing produced by CheckSchedule.
type TimerEvent struct {
	Kind    EventKind
	OrderID string
	Minutes int
	Message string
}

// CheckSchedule compares the tracked order's schedule against now and fires
// at most one event per poll. Time-up fires once per order id; the reminder
// fires once per threshold crossing. Both guards reset when a new order
// becomes active, so repeated polls at the same simulated time are idempotent.
func (s *Session) CheckSchedule(now time.Time) (TimerEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tr.confirmed || s.tr.schedule.Time == "" {
		return TimerEvent{}, false
	}
	if !s.tr.schedule.IsOn(now) {
		return TimerEvent{}, false
	}

	scheduled, err := s.tr.schedule.MinuteOfDay()
	if err != nil {
		s.lg.Warn("unparseable schedule time", zap.String("time", s.tr.schedule.Time), zap.Error(err))
		return TimerEvent{}, false
	}
	diff := scheduled - (now.Hour()*60 + now.Minute())

	if diff <= 0 {
		if s.tr.timeUpShownFor == s.tr.orderID {
			return TimerEvent{}, false
		}
		s.tr.showReminder = false
		s.tr.showTimeUp = true
		s.tr.timeUpShownFor = s.tr.orderID
		return TimerEvent{Kind: EventTimeUp, OrderID: s.tr.orderID}, true
	}

	if diff <= ReminderWindowMinutes && !s.tr.reminderFired && s.tr.timeUpShownFor != s.tr.orderID {
		msg := fmt.Sprintf("Reminder: Your %s is scheduled in %d minutes!", s.tr.serviceType, diff)
		s.tr.showReminder = true
		s.tr.reminderMessage = msg
		s.tr.reminderFired = true
		return TimerEvent{Kind: EventReminder, OrderID: s.tr.orderID, Minutes: diff, Message: msg}, true
	}

	return TimerEvent{}, false
}
