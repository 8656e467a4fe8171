package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role represents the single trading mode a user operates in.
// Buyer and seller are mutually exclusive; switching is explicit.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// Opposite returns the other trading mode.
func (r Role) Opposite() Role {
	if r == RoleBuyer {
		return RoleSeller
	}
	return RoleBuyer
}

// User is the domain model for trading participants. Records are created
// lazily on first interaction and never deleted.
type User struct {
	ID             int64
	TelegramID     int64
	DisplayName    string
	Role           Role
	Balance        decimal.Decimal
	TotalBought    decimal.Decimal
	TotalSold      decimal.Decimal
	CompletedDeals int
	Rating         decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
