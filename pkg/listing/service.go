package listing

import (
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"lapak/models"
)

// FeedSize is the fixed number of entries on the public feed. There is no
// pagination past the first page.
const FeedSize = 10

// Service mediates all listing mutation on behalf of an authenticated user:
// profile lookup, validation, description sanitation and stamping of the
// system-derived fields.
type Service struct {
	store     *Store
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

func NewService(store *Store) *Service {
	return &Service{
		store:     store,
		sanitizer: bluemonday.UGCPolicy(),
		now:       time.Now,
	}
}

// CreateInput is the caller-facing shape of a new listing. Seller, location
// and publish time are never accepted from callers.
type CreateInput struct {
	Name        string
	Price       float64
	Description string
	ImageURL    string
}

// Create stores a new listing for userID's seller profile. Location and
// seller come from the profile, the publish time from the clock.
func (s *Service) Create(userID uint, in CreateInput) (*models.Listing, error) {
	profile, err := s.store.ProfileOf(userID)
	if err != nil {
		return nil, err
	}
	image := in.ImageURL
	if image == "" {
		image = models.PlaceholderImage
	}
	l := &models.Listing{
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Description: s.sanitizer.Sanitize(in.Description),
		ImageURL:    image,
		Location:    profile.Location,
		SellerID:    profile.ID,
		PublishedAt: s.now(),
	}
	if err := s.store.Create(l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get returns a single listing.
func (s *Service) Get(id uint) (*models.Listing, error) {
	return s.store.Get(id)
}

// Edit applies upd to listing id if userID owns it. A foreign listing is
// reported with ErrNotOwner, which callers surface exactly like a missing
// one. The owner never changes, so the check cannot go stale before the
// update commits.
func (s *Service) Edit(id, userID uint, upd Update) (*models.Listing, error) {
	current, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if current.Seller.UserID != userID {
		return nil, ErrNotOwner
	}
	if upd.Description != nil {
		clean := s.sanitizer.Sanitize(*upd.Description)
		upd.Description = &clean
	}
	return s.store.UpdateFields(id, upd)
}

// Delete permanently removes listing id if userID owns it. No soft delete,
// no undo.
func (s *Service) Delete(id, userID uint) error {
	return s.store.Delete(id, userID)
}

// RecentFeed returns the public feed: the FeedSize most recent listings.
func (s *Service) RecentFeed() ([]models.Listing, error) {
	return s.store.Recent(FeedSize)
}

// MyListings returns every listing owned by userID, newest first.
func (s *Service) MyListings(userID uint) ([]models.Listing, error) {
	return s.store.BySeller(userID)
}
