package models

import "time"

type Review struct {
	ID         uint      `gorm:"primaryKey"                                           json:"id"`
	ProductID  string    `gorm:"size:100;not null;index"                              json:"product_id"`
	AuthorName string    `gorm:"size:120;not null"                                    json:"author_name"`
	Rating     int       `gorm:"not null;check:chk_reviews_rating,rating >= 1 AND rating <= 5" json:"rating"`
	Comment    string    `gorm:"type:text"                                            json:"comment"`
	Approved   bool      `gorm:"not null;index"                                       json:"approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReviewSummary aggregates the approved reviews of one product.
type ReviewSummary struct {
	ProductID string  `json:"product_id"`
	Average   float64 `json:"average"`
	Count     int64   `json:"count"`
}
