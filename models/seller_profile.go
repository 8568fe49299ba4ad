package models

import "time"

// SellerProfile holds the seller-specific attributes of a user (one-to-one
// with User). Deleting the user removes the profile, and deleting the
// profile removes every listing it owns.
type SellerProfile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint      `gorm:"uniqueIndex;not null"` // one-to-one relation
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Location  string    `gorm:"size:100;not null"`
	Listings  []Listing `gorm:"foreignKey:SellerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
