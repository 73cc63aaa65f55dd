// Package repository provides the typed order and profile repositories on
// top of the document store.
package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/kababistan/orderhub/internal/docstore"
	"github.com/kababistan/orderhub/internal/domain/cart"
	"github.com/kababistan/orderhub/internal/domain/order"
)

// OrdersCollection is the document collection holding orders.
const OrdersCollection = "orders"

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository over a docstore.Store. Orders
// are stored as flat documents: money fields as decimal strings, lines as an
// embedded array, creation time as epoch milliseconds.
type OrderRepository struct {
	store docstore.Store
}

// NewOrderRepository returns an OrderRepository that uses the given store.
func NewOrderRepository(store docstore.Store) *OrderRepository {
	return &OrderRepository{store: store}
}

// Create persists a new order document keyed by the order id.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := r.store.Set(ctx, OrdersCollection, o.ID, encodeOrder(o)); err != nil {
		return errors.Wrapf(err, "create order %q", o.ID)
	}
	return nil
}

// UpdateStatus merges the new status into the stored document.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	err := r.store.Update(ctx, OrdersCollection, id, docstore.Document{"status": string(status)})
	if err != nil {
		return errors.Wrapf(err, "update status of order %q", id)
	}
	return nil
}

// Delete removes the order document.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, OrdersCollection, id); err != nil {
		return errors.Wrapf(err, "delete order %q", id)
	}
	return nil
}

// Get returns the stored order.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	doc, err := r.store.Get(ctx, OrdersCollection, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := decodeOrder(doc)
	if err != nil {
		return nil, errors.Wrapf(err, "decode order %q", id)
	}
	return o, nil
}

// ListByCustomer returns the customer's stored orders, newest first.
// Malformed documents are skipped, matching the watch streams.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	docs, err := r.store.Query(ctx, OrdersCollection, docstore.Query{
		FilterField: "customerId",
		FilterValue: customerID,
		OrderBy:     "createdAt",
		Descending:  true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of customer %q", customerID)
	}
	orders := make([]order.Order, 0, len(docs))
	for _, doc := range docs {
		o, err := decodeOrder(doc)
		if err != nil {
			continue
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

// WatchByCustomer streams the customer's orders, newest first.
func (r *OrderRepository) WatchByCustomer(ctx context.Context, customerID string) (*order.Watch, error) {
	return r.watch(ctx, docstore.Query{
		FilterField: "customerId",
		FilterValue: customerID,
		OrderBy:     "createdAt",
		Descending:  true,
	})
}

// WatchAll streams the whole order collection, newest first.
func (r *OrderRepository) WatchAll(ctx context.Context) (*order.Watch, error) {
	return r.watch(ctx, docstore.Query{
		OrderBy:    "createdAt",
		Descending: true,
	})
}

func (r *OrderRepository) watch(ctx context.Context, q docstore.Query) (*order.Watch, error) {
	sub, err := r.store.Subscribe(ctx, OrdersCollection, q)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe orders")
	}

	ch := make(chan []order.Order, 1)
	go func() {
		defer close(ch)
		for snap := range sub.C {
			orders := make([]order.Order, 0, len(snap))
			for _, doc := range snap {
				o, err := decodeOrder(doc)
				if err != nil {
					// Malformed documents are skipped rather than wedging
					// the whole stream.
					continue
				}
				orders = append(orders, *o)
			}
			select {
			case ch <- orders:
			default:
				select {
				case <-ch:
				default:
				}
				ch <- orders
			}
		}
	}()

	return &order.Watch{C: ch, Stop: sub.Stop}, nil
}

func encodeOrder(o *order.Order) docstore.Document {
	lines := make([]any, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, map[string]any{
			"itemId":    l.ItemID,
			"name":      l.Name,
			"unitPrice": l.UnitPrice.String(),
			"quantity":  int64(l.Quantity),
		})
	}

	return docstore.Document{
		"id":                  o.ID,
		"customerId":          o.CustomerID,
		"lines":               lines,
		"subtotal":            o.Subtotal.String(),
		"discount":            o.Discount.String(),
		"tax":                 o.Tax.String(),
		"total":               o.Total.String(),
		"serviceType":         string(o.ServiceType),
		"scheduleDate":        o.Schedule.Date,
		"scheduleTime":        o.Schedule.Time,
		"status":              string(o.Status),
		"paymentMethod":       o.PaymentMethod,
		"cardNumber":          o.CardNumber,
		"cardExpiry":          o.CardExpiry,
		"customerName":        o.Customer.Name,
		"customerPhone":       o.Customer.Phone,
		"customerEmail":       o.Customer.Email,
		"customerAddress":     o.Customer.Address,
		"partySize":           o.PartySize,
		"specialInstructions": o.SpecialInstructions,
		"createdAt":           o.CreatedAt.UnixMilli(),
	}
}

func decodeOrder(doc docstore.Document) (*order.Order, error) {
	o := &order.Order{
		ID:                  docString(doc, "id"),
		CustomerID:          docString(doc, "customerId"),
		ServiceType:         order.ServiceType(docString(doc, "serviceType")),
		Status:              order.Status(docString(doc, "status")),
		PaymentMethod:       docString(doc, "paymentMethod"),
		CardNumber:          docString(doc, "cardNumber"),
		CardExpiry:          docString(doc, "cardExpiry"),
		PartySize:           docString(doc, "partySize"),
		SpecialInstructions: docString(doc, "specialInstructions"),
		Schedule: order.Schedule{
			Date: docString(doc, "scheduleDate"),
			Time: docString(doc, "scheduleTime"),
		},
		Customer: order.Customer{
			Name:    docString(doc, "customerName"),
			Phone:   docString(doc, "customerPhone"),
			Email:   docString(doc, "customerEmail"),
			Address: docString(doc, "customerAddress"),
		},
		CreatedAt: time.UnixMilli(docInt64(doc, "createdAt")),
	}
	if o.ID == "" {
		return nil, errors.New("missing order id")
	}

	var err error
	for _, f := range []struct {
		key string
		dst *decimal.Decimal
	}{
		{"subtotal", &o.Subtotal},
		{"discount", &o.Discount},
		{"tax", &o.Tax},
		{"total", &o.Total},
	} {
		*f.dst, err = decimal.NewFromString(docString(doc, f.key))
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", f.key)
		}
	}

	rawLines, _ := doc["lines"].([]any)
	for _, raw := range rawLines {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(docString(m, "unitPrice"))
		if err != nil {
			return nil, errors.Wrap(err, "parse line unit price")
		}
		o.Lines = append(o.Lines, cart.Line{
			ItemID:    docString(m, "itemId"),
			Name:      docString(m, "name"),
			UnitPrice: price,
			Quantity:  int(docInt64(m, "quantity")),
		})
	}

	return o, nil
}

// docString reads a string field, tolerating absence.
func docString(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

// docInt64 reads an integer field. JSON round-trips through the database
// decode numbers as float64, so both representations are accepted.
func docInt64(doc map[string]any, key string) int64 {
	switch v := doc[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	}
	return 0
}
