// Package order implements the order lifecycle: creation from cart and
// schedule data, the per-service-type status state machine, the customer
// session tracking its in-flight order, and the reservation reminder timer.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kababistan/orderhub/internal/domain/cart"
)

// ServiceType determines the valid status vocabulary and required fields of
// an order.
type ServiceType string

const (
	ServicePickUp      ServiceType = "Pick up"
	ServiceDelivery    ServiceType = "Delivery"
	ServiceReservation ServiceType = "Reservation"
)

// Valid reports whether the service type is one of the known values.
func (s ServiceType) Valid() bool {
	switch s {
	case ServicePickUp, ServiceDelivery, ServiceReservation:
		return true
	}
	return false
}

// Prefix returns the order id tag for the service type.
func (s ServiceType) Prefix() string {
	switch s {
	case ServiceDelivery:
		return "DEL"
	case ServiceReservation:
		return "RES"
	default:
		return "PICK"
	}
}

// NewID generates a display order id: "#" + service tag + "-" + UUID.
// The tag keeps the historical DEL/RES/PICK prefix semantics; the UUID
// replaces the original 4-digit random suffix to rule out collisions.
func NewID(s ServiceType) string {
	return "#" + s.Prefix() + "-" + uuid.NewString()
}

// Schedule layouts match the formats the ordering clients submit.
const (
	DateLayout = "02 Jan 2006"
	TimeLayout = "03:04 PM"
)

// Schedule is the requested pickup/delivery/reservation slot.
type Schedule struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Resolved reports whether both fields are set. The clients send empty
// strings while the pickers still show their placeholder.
func (s Schedule) Resolved() bool {
	return s.Date != "" && s.Time != ""
}

// IsOn reports whether the schedule falls on the same calendar day as now.
func (s Schedule) IsOn(now time.Time) bool {
	return s.Date == now.Format(DateLayout)
}

// MinuteOfDay parses the schedule time and returns it as minutes since
// midnight.
func (s Schedule) MinuteOfDay() (int, error) {
	t, err := time.Parse(TimeLayout, s.Time)
	if err != nil {
		return 0, errors.Wrap(err, "parse schedule time")
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Customer holds the contact fields captured at checkout.
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// PaymentCard is the payment method requiring card details. Card fields are
// collected and stored as plain strings; no payment is captured.
const PaymentCard = "Credit/Debit Card"

// Payment holds the selected payment method and, for card payments, the raw
// card fields.
type Payment struct {
	Method     string `json:"method"`
	CardNumber string `json:"cardNumber"`
	CardExpiry string `json:"cardExpiry"`
	CardCVV    string `json:"cardCvv"`
}

// Order is the persisted record of a pickup, delivery, or reservation
// request. Line, pricing, and schedule fields are immutable after creation;
// only Status changes afterwards, through defined transitions.
type Order struct {
	ID                  string
	CustomerID          string
	Lines               []cart.Line
	Subtotal            decimal.Decimal
	Discount            decimal.Decimal
	Tax                 decimal.Decimal
	Total               decimal.Decimal
	ServiceType         ServiceType
	Schedule            Schedule
	Status              Status
	PaymentMethod       string
	CardNumber          string
	CardExpiry          string
	Customer            Customer
	PartySize           string
	SpecialInstructions string
	CreatedAt           time.Time
}

// Repository defines persistence and realtime retrieval for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Order, error)
	// ListByCustomer returns the customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	// WatchByCustomer streams the customer's orders, newest first, re-delivered
	// on every change.
	WatchByCustomer(ctx context.Context, customerID string) (*Watch, error)
	// WatchAll streams the whole order collection, newest first.
	WatchAll(ctx context.Context) (*Watch, error)
}

// Watch is a realtime subscription delivering full snapshots of matching
// orders. Stop releases the subscription; C is closed afterwards.
type Watch struct {
	C    <-chan []Order
	Stop func()
}
