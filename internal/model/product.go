package model

import "time"

// Product represents a handbag in the catalogue.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       int64     `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	CategoryID  int64     `json:"categoryId" db:"category_id"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Category groups products, e.g. leather bags or backpacks.
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// StockAdjustmentRequest is the staff payload for correcting stock levels.
type StockAdjustmentRequest struct {
	Delta int `json:"delta"`
}
