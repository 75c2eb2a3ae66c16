package models

import (
	"time"

	"tourbook/internal/domain"
)

// Operator is the tenant owning tours, spots and their bookings.
type Operator struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CustomerSummary is a customer as seen from one operator's dashboard.
type CustomerSummary struct {
	Customer
	Bookings   int   `json:"bookings"`
	TotalSpent int64 `json:"totalSpent"`
}

type Category struct {
	ID          int64  `json:"id"`
	OperatorID  int64  `json:"operatorId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// User is a login identity. PasswordHash never leaves the server.
type User struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         domain.Role `json:"role"`
	OperatorID   *int64      `json:"operatorId,omitempty"`
	CustomerID   *int64      `json:"customerId,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

func (u User) RequestContext() domain.RequestContext {
	rc := domain.RequestContext{UserID: u.ID, Role: u.Role}
	if u.OperatorID != nil {
		rc.OperatorID = *u.OperatorID
	}
	if u.CustomerID != nil {
		rc.CustomerID = *u.CustomerID
	}
	return rc
}
