package catalog

import "time"

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Available   int       `json:"available"`
	Reserved    int       `json:"reserved"`
	Sold        int       `json:"sold"`
	Active      bool      `json:"active"`
	AvgRating   float64   `json:"avg_rating"`
	ReviewCount int       `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NewProduct struct {
	Name        string `json:"name"`
	Species     string `json:"species"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Stock       int    `json:"stock"`
}
