package models

import "time"

// PlaceholderImage is stored on listings created without an image.
const PlaceholderImage = "default.png"

// Listing is an item a seller has posted for sale. Location and SellerID
// are stamped from the seller's profile when the listing is created and
// never change afterwards; PublishedAt is set once at creation.
type Listing struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string        `gorm:"size:100;not null"`
	Price       float64       `gorm:"not null"` // always > 0, enforced at write time
	Description string        `gorm:"type:text"`
	ImageURL    string        `gorm:"size:512;not null"`
	Location    string        `gorm:"size:100;not null"`
	SellerID    uint          `gorm:"index;not null"`
	Seller      SellerProfile `gorm:"foreignKey:SellerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	PublishedAt time.Time     `gorm:"index;not null"`
}
