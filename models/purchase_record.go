package models

import "time"

// PurchaseRecord links a buyer to a listing. No route exposes it yet; the
// table is kept for the future checkout flow. ListingID deliberately has no
// foreign key constraint: deleting a listing must leave purchase history
// untouched, while deleting the buyer removes their records.
type PurchaseRecord struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	ListingID uint `gorm:"index;not null"`
	BuyerID   uint `gorm:"index;not null"`
	Buyer     User `gorm:"foreignKey:BuyerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
