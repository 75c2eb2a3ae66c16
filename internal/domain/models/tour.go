package models

import (
	"time"

	"tourbook/internal/domain"
)

// Tour is a sellable product owned by an operator.
type Tour struct {
	ID            int64             `json:"id"`
	OperatorID    int64             `json:"operatorId"`
	CategoryID    *int64            `json:"categoryId,omitempty"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Price         int64             `json:"price"`
	Currency      string            `json:"currency"`
	Status        domain.TourStatus `json:"status"`
	Published     bool              `json:"published"`
	CoverImageURL string            `json:"coverImageUrl,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

type TourFilter struct {
	OperatorID    int64
	CategoryID    int64
	Status        domain.TourStatus
	PublishedOnly bool
	Search        string
}

// TourUpdate supports PATCH-style updates via key presence.
type TourUpdate struct {
	CategoryID    *int64
	Title         *string
	Description   *string
	Price         *int64
	Currency      *string
	CoverImageURL *string
}

// Bookable reports whether customers may browse and reserve this tour.
func (t Tour) Bookable() bool {
	return t.Published && t.Status == domain.TourActive
}

func (t *Tour) Transition(to domain.TourStatus) error {
	if !t.Status.CanTransition(to) {
		return domain.InvalidTransitionError{Entity: "tour", From: string(t.Status), To: string(to)}
	}
	t.Status = to
	return nil
}
