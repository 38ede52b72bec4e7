package model

import "time"

// Customer is a loyalty member. Walk-in customers created at the till have
// no linked user account.
type Customer struct {
	ID         int64     `json:"id" db:"id"`
	UserID     *int64    `json:"userId,omitempty" db:"user_id"`
	FullName   string    `json:"fullName" db:"full_name"`
	Phone      string    `json:"phone" db:"phone"`
	Email      *string   `json:"email,omitempty" db:"email"`
	Address    string    `json:"address" db:"address"`
	TotalSpend int64     `json:"totalSpend" db:"total_spend"`
	JoinedAt   time.Time `json:"joinedAt" db:"joined_at"`
}

// CustomerInfo is the loyalty summary shown at the till after a sale.
type CustomerInfo struct {
	ID              int64  `json:"id"`
	FullName        string `json:"ho_ten"`
	Tier            string `json:"hang_thanh_vien"`
	DiscountPercent int    `json:"muc_giam_gia"`
}

// CustomerResponse is a customer together with its current tier.
type CustomerResponse struct {
	Customer
	Tier            string `json:"tier"`
	DiscountPercent int    `json:"discountPercent"`
}
