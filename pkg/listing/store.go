package listing

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"lapak/models"
)

// Store persists listings. Write-time invariants (positive price, non-empty
// name, immutable seller/location/publish time) live here, not only at the
// HTTP boundary.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Update carries the fields an owner may change. Seller, location and
// publish time are deliberately not representable.
type Update struct {
	Name        *string
	Price       *float64
	Description *string
	ImageURL    *string
}

func validateFields(name string, price float64) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if price <= 0 {
		return &ValidationError{Field: "price", Reason: "must be greater than 0"}
	}
	return nil
}

// Create validates and inserts l.
func (s *Store) Create(l *models.Listing) error {
	if err := validateFields(l.Name, l.Price); err != nil {
		return err
	}
	if err := s.db.Create(l).Error; err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

// Get returns the listing with its seller preloaded.
func (s *Store) Get(id uint) (*models.Listing, error) {
	var l models.Listing
	if err := s.db.Preload("Seller").First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &l, nil
}

// ProfileOf returns the seller profile owned by userID.
func (s *Store) ProfileOf(userID uint) (*models.SellerProfile, error) {
	var p models.SellerProfile
	if err := s.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileMissing
		}
		return nil, fmt.Errorf("get seller profile: %w", err)
	}
	return &p, nil
}

// UpdateFields applies upd to the listing id inside a transaction and
// returns the updated row. If the row vanishes between the read and the
// UPDATE (a racing delete) the zero-row result is reported as ErrNotFound;
// nothing gets resurrected.
func (s *Store) UpdateFields(id uint, upd Update) (*models.Listing, error) {
	var out models.Listing
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.Listing
		if err := tx.First(&current, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load listing: %w", err)
		}
		name, price := current.Name, current.Price
		changes := map[string]any{}
		if upd.Name != nil {
			name = strings.TrimSpace(*upd.Name)
			changes["name"] = name
		}
		if upd.Price != nil {
			price = *upd.Price
			changes["price"] = price
		}
		if upd.Description != nil {
			changes["description"] = *upd.Description
		}
		if upd.ImageURL != nil {
			changes["image_url"] = *upd.ImageURL
		}
		if err := validateFields(name, price); err != nil {
			return err
		}
		if len(changes) == 0 {
			out = current
			return nil
		}
		res := tx.Model(&models.Listing{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return fmt.Errorf("update listing: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.First(&out, id).Error; err != nil {
			return fmt.Errorf("reload listing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the listing permanently. requesterID must be the user who
// owns the listing's seller profile; anyone else gets ErrNotOwner. A second
// delete of the same id reports ErrNotFound.
func (s *Store) Delete(id, requesterID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var l models.Listing
		if err := tx.Preload("Seller").First(&l, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load listing: %w", err)
		}
		if l.Seller.UserID != requesterID {
			return ErrNotOwner
		}
		res := tx.Delete(&models.Listing{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete listing: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Recent returns at most n listings ordered newest first. Equal publish
// times keep insertion order.
func (s *Store) Recent(n int) ([]models.Listing, error) {
	var items []models.Listing
	err := s.db.
		Order("published_at DESC, id ASC").
		Limit(n).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	return items, nil
}

// BySeller returns every listing whose seller profile belongs to userID,
// newest first.
func (s *Store) BySeller(userID uint) ([]models.Listing, error) {
	var items []models.Listing
	err := s.db.
		Joins("JOIN seller_profiles ON seller_profiles.id = listings.seller_id").
		Where("seller_profiles.user_id = ?", userID).
		Order("listings.published_at DESC, listings.id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list by seller: %w", err)
	}
	return items, nil
}
