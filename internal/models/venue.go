package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Venue struct {
	bun.BaseModel `bun:"table:venues"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Cuisine     string    `bun:"cuisine" json:"cuisine"`
	Rating      float64   `bun:"rating" json:"rating"`
	Reviews     int       `bun:"reviews" json:"reviews"`
	Address     string    `bun:"address" json:"address"`
	Hours       string    `bun:"hours" json:"hours"`
	PriceRange  string    `bun:"price_range" json:"priceRange"`
	Capacity    int       `bun:"capacity,notnull" json:"capacity"`
	Image       string    `bun:"image" json:"image"`
	Phone       string    `bun:"phone" json:"phone,omitempty"`
	Website     string    `bun:"website" json:"website,omitempty"`
	Description string    `bun:"description" json:"description,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero" json:"updatedAt,omitempty"`
}

// VenuePatch carries a partial venue update; nil fields are left alone.
type VenuePatch struct {
	Name        *string  `json:"name,omitempty"`
	Cuisine     *string  `json:"cuisine,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Reviews     *int     `json:"reviews,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Hours       *string  `json:"hours,omitempty"`
	PriceRange  *string  `json:"priceRange,omitempty"`
	Capacity    *int     `json:"capacity,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Website     *string  `json:"website,omitempty"`
	Description *string  `json:"description,omitempty"`
}

// Apply merges the patch into v.
func (p VenuePatch) Apply(v *Venue) {
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Cuisine != nil {
		v.Cuisine = *p.Cuisine
	}
	if p.Rating != nil {
		v.Rating = *p.Rating
	}
	if p.Reviews != nil {
		v.Reviews = *p.Reviews
	}
	if p.Address != nil {
		v.Address = *p.Address
	}
	if p.Hours != nil {
		v.Hours = *p.Hours
	}
	if p.PriceRange != nil {
		v.PriceRange = *p.PriceRange
	}
	if p.Capacity != nil {
		v.Capacity = *p.Capacity
	}
	if p.Image != nil {
		v.Image = *p.Image
	}
	if p.Phone != nil {
		v.Phone = *p.Phone
	}
	if p.Website != nil {
		v.Website = *p.Website
	}
	if p.Description != nil {
		v.Description = *p.Description
	}
}

type VenueSearch struct {
	Cuisine    string  `json:"cuisine,omitempty"`
	PriceRange string  `json:"priceRange,omitempty"`
	MinRating  float64 `json:"minRating,omitempty"`
}

// Matches reports whether v passes every filter that is set.
func (s VenueSearch) Matches(v Venue) bool {
	if s.Cuisine != "" && v.Cuisine != s.Cuisine {
		return false
	}
	if s.PriceRange != "" && v.PriceRange != s.PriceRange {
		return false
	}
	if s.MinRating > 0 && v.Rating < s.MinRating {
		return false
	}
	return true
}
