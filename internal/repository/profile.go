package repository

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/kababistan/orderhub/internal/docstore"
	"github.com/kababistan/orderhub/internal/domain/order"
)

// UsersCollection is the document collection holding customer profiles.
const UsersCollection = "users"

// Profile is a customer's saved contact details and favorite menu items.
type Profile struct {
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Email     string   `json:"email"`
	Address   string   `json:"address"`
	Favorites []string `json:"favorites"`
}

var _ order.ProfileStore = (*ProfileRepository)(nil)

// ProfileRepository stores customer profiles in the document store.
type ProfileRepository struct {
	store docstore.Store
}

// NewProfileRepository returns a ProfileRepository that uses the given store.
func NewProfileRepository(store docstore.Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

// Get returns the customer's profile. A customer without one gets the zero
// profile, not an error.
func (r *ProfileRepository) Get(ctx context.Context, customerID string) (Profile, error) {
	doc, err := r.store.Get(ctx, UsersCollection, customerID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Profile{}, nil
		}
		return Profile{}, errors.Wrapf(err, "get profile %q", customerID)
	}
	return decodeProfile(doc), nil
}

// Save replaces the customer's profile.
func (r *ProfileRepository) Save(ctx context.Context, customerID string, p Profile) error {
	if err := r.store.Set(ctx, UsersCollection, customerID, encodeProfile(p)); err != nil {
		return errors.Wrapf(err, "save profile %q", customerID)
	}
	return nil
}

// Merge fills the profile's empty contact fields from the checkout customer
// data. Fields the customer already saved are not overwritten.
func (r *ProfileRepository) Merge(ctx context.Context, customerID string, c order.Customer) error {
	p, err := r.Get(ctx, customerID)
	if err != nil {
		return err
	}

	if p.Name == "" {
		p.Name = c.Name
	}
	if p.Phone == "" {
		p.Phone = c.Phone
	}
	if p.Email == "" {
		p.Email = c.Email
	}
	if p.Address == "" {
		p.Address = c.Address
	}

	return r.Save(ctx, customerID, p)
}

// ToggleFavorite adds the item to the customer's favorites, or removes it if
// already present. Returns whether the item is a favorite afterwards.
func (r *ProfileRepository) ToggleFavorite(ctx context.Context, customerID, itemID string) (bool, error) {
	p, err := r.Get(ctx, customerID)
	if err != nil {
		return false, err
	}

	for i, f := range p.Favorites {
		if f == itemID {
			p.Favorites = append(p.Favorites[:i], p.Favorites[i+1:]...)
			return false, r.Save(ctx, customerID, p)
		}
	}

	p.Favorites = append(p.Favorites, itemID)
	return true, r.Save(ctx, customerID, p)
}

func encodeProfile(p Profile) docstore.Document {
	favs := make([]any, 0, len(p.Favorites))
	for _, f := range p.Favorites {
		favs = append(favs, f)
	}
	return docstore.Document{
		"name":      p.Name,
		"phone":     p.Phone,
		"email":     p.Email,
		"address":   p.Address,
		"favorites": favs,
	}
}

func decodeProfile(doc docstore.Document) Profile {
	p := Profile{
		Name:    docString(doc, "name"),
		Phone:   docString(doc, "phone"),
		Email:   docString(doc, "email"),
		Address: docString(doc, "address"),
	}
	raw, _ := doc["favorites"].([]any)
	for _, f := range raw {
		if s, ok := f.(string); ok {
			p.Favorites = append(p.Favorites, s)
		}
	}
	return p
}
