package services

import (
	"context"
	"strings"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/repositories"
	"tourbook/internal/utils"
)

type SpotService struct {
	Deps
}

type SpotInput struct {
	Name          string
	DepartureDate string
	ReturnDate    string
	MaxSeats      int
	PriceOverride *int64
}

// SpotUpdate carries only the fields present in the request.
type SpotUpdate struct {
	Name               *string
	DepartureDate      *string
	ReturnDate         *string
	MaxSeats           *int
	PriceOverride      *int64
	ClearPriceOverride bool
}

func parseSchedule(departure, ret string) (time.Time, *time.Time, error) {
	dep, err := utils.ParseFlexibleTime(departure)
	if err != nil {
		return time.Time{}, nil, domain.ValidationError{Field: "departureDate", Msg: "must be a date or RFC 3339 time", Err: err}
	}
	if strings.TrimSpace(ret) == "" {
		return dep, nil, nil
	}
	r, err := utils.ParseFlexibleTime(ret)
	if err != nil {
		return time.Time{}, nil, domain.ValidationError{Field: "returnDate", Msg: "must be a date or RFC 3339 time", Err: err}
	}
	if r.Before(dep) {
		return time.Time{}, nil, domain.ValidationError{Field: "returnDate", Msg: "must not be before departure"}
	}
	return dep, &r, nil
}

func (s SpotService) ownedTour(ctx context.Context, r repositories.Repos, rc domain.RequestContext, tourID int64) (models.Tour, error) {
	t, err := r.Tours.Get(ctx, tourID)
	if err != nil {
		return models.Tour{}, err
	}
	if t.OperatorID != rc.OperatorID {
		return models.Tour{}, domain.NotFoundError{Resource: "tour"}
	}
	return t, nil
}

func (s SpotService) Create(ctx context.Context, rc domain.RequestContext, tourID int64, in SpotInput) (models.Spot, error) {
	if err := requireOperator(rc); err != nil {
		return models.Spot{}, err
	}
	if in.MaxSeats <= 0 {
		return models.Spot{}, domain.ValidationError{Field: "maxSeats", Msg: "must be at least 1"}
	}
	if in.PriceOverride != nil && *in.PriceOverride < 0 {
		return models.Spot{}, domain.ValidationError{Field: "priceOverride", Msg: "must not be negative"}
	}
	dep, ret, err := parseSchedule(in.DepartureDate, in.ReturnDate)
	if err != nil {
		return models.Spot{}, err
	}
	now := s.now()
	if !dep.After(now) {
		return models.Spot{}, domain.ValidationError{Field: "departureDate", Msg: "must be in the future"}
	}

	repos := s.Store.Repos()
	tour, err := s.ownedTour(ctx, repos, rc, tourID)
	if err != nil {
		return models.Spot{}, wrapErr("create spot", err)
	}
	if tour.Status.Terminal() {
		return models.Spot{}, domain.InvalidTransitionError{Entity: "tour", From: string(tour.Status), Msg: "cannot schedule departures"}
	}

	spot := models.Spot{
		TourID:        tour.ID,
		OperatorID:    tour.OperatorID,
		Name:          utils.NormalizeSpace(in.Name),
		DepartureDate: dep,
		ReturnDate:    ret,
		MaxSeats:      in.MaxSeats,
		PriceOverride: in.PriceOverride,
		Status:        domain.SpotActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repos.Spots.Create(ctx, &spot); err != nil {
		return models.Spot{}, wrapErr("create spot", err)
	}
	s.log("spot", "create", "spot_id=%d tour_id=%d max_seats=%d", spot.ID, tour.ID, spot.MaxSeats)
	return spot, nil
}

func (s SpotService) Get(ctx context.Context, rc domain.RequestContext, id int64) (models.Spot, error) {
	if err := requireOperator(rc); err != nil {
		return models.Spot{}, err
	}
	spot, err := s.Store.Repos().Spots.Get(ctx, id)
	if err != nil {
		return models.Spot{}, wrapErr("get spot", err)
	}
	if spot.OperatorID != rc.OperatorID {
		return models.Spot{}, domain.NotFoundError{Resource: "spot"}
	}
	return spot, nil
}

func (s SpotService) ListByTour(ctx context.Context, rc domain.RequestContext, tourID int64) ([]models.Spot, error) {
	if err := requireOperator(rc); err != nil {
		return nil, err
	}
	repos := s.Store.Repos()
	if _, err := s.ownedTour(ctx, repos, rc, tourID); err != nil {
		return nil, wrapErr("list spots", err)
	}
	list, err := repos.Spots.ListByTour(ctx, tourID, nil)
	return list, wrapErr("list spots", err)
}

// Update edits a spot under its row lock. Capacity never drops below sold seats.
func (s SpotService) Update(ctx context.Context, rc domain.RequestContext, id int64, in SpotUpdate) (spot models.Spot, err error) {
	if err := requireOperator(rc); err != nil {
		return models.Spot{}, err
	}
	err = s.Store.InTx(ctx, "spot", func(ctx context.Context, r repositories.Repos) error {
		sp, err := r.Spots.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sp.OperatorID != rc.OperatorID {
			return domain.NotFoundError{Resource: "spot"}
		}
		if sp.Status.Terminal() {
			return domain.InvalidTransitionError{Entity: "spot", From: string(sp.Status), Msg: "closed spots cannot be edited"}
		}
		if in.Name != nil {
			sp.Name = utils.NormalizeSpace(*in.Name)
		}
		if in.DepartureDate != nil || in.ReturnDate != nil {
			depRaw := sp.DepartureDate.Format(time.RFC3339)
			if in.DepartureDate != nil {
				depRaw = *in.DepartureDate
			}
			retRaw := ""
			if sp.ReturnDate != nil {
				retRaw = sp.ReturnDate.Format(time.RFC3339)
			}
			if in.ReturnDate != nil {
				retRaw = *in.ReturnDate
			}
			dep, ret, err := parseSchedule(depRaw, retRaw)
			if err != nil {
				return err
			}
			if !dep.After(s.now()) {
				return domain.ValidationError{Field: "departureDate", Msg: "must be in the future"}
			}
			sp.DepartureDate, sp.ReturnDate = dep, ret
		}
		if in.MaxSeats != nil {
			if err := sp.Resize(*in.MaxSeats); err != nil {
				return err
			}
		}
		if in.ClearPriceOverride {
			sp.PriceOverride = nil
		} else if in.PriceOverride != nil {
			if *in.PriceOverride < 0 {
				return domain.ValidationError{Field: "priceOverride", Msg: "must not be negative"}
			}
			sp.PriceOverride = in.PriceOverride
		}
		sp.UpdatedAt = s.now()
		if err := r.Spots.Update(ctx, &sp); err != nil {
			return err
		}
		spot = sp
		return nil
	})
	if err != nil {
		return models.Spot{}, wrapErr("update spot", err)
	}
	s.log("spot", "update", "spot_id=%d max_seats=%d booked=%d status=%s", spot.ID, spot.MaxSeats, spot.BookedSeats, spot.Status)
	return spot, nil
}

// Cancel closes a spot for sale. Spots still holding active bookings are refused.
func (s SpotService) Cancel(ctx context.Context, rc domain.RequestContext, id int64) (spot models.Spot, err error) {
	if err := requireOperator(rc); err != nil {
		return models.Spot{}, err
	}
	err = s.Store.InTx(ctx, "spot", func(ctx context.Context, r repositories.Repos) error {
		sp, err := r.Spots.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sp.OperatorID != rc.OperatorID {
			return domain.NotFoundError{Resource: "spot"}
		}
		active, err := r.Bookings.ListBySpot(ctx, sp.ID, true)
		if err != nil {
			return err
		}
		if len(active) > 0 || sp.BookedSeats > 0 {
			return domain.InvalidTransitionError{Entity: "spot", From: string(sp.Status), To: string(domain.SpotCancelled), Msg: "spot has active bookings; cancel or refund them first"}
		}
		if err := sp.Transition(domain.SpotCancelled); err != nil {
			return err
		}
		sp.UpdatedAt = s.now()
		if err := r.Spots.Update(ctx, &sp); err != nil {
			return err
		}
		spot = sp
		return nil
	})
	if err != nil {
		return models.Spot{}, wrapErr("cancel spot", err)
	}
	s.log("spot", "cancel", "spot_id=%d", spot.ID)
	return spot, nil
}

// Delete removes a spot that never had bookings.
func (s SpotService) Delete(ctx context.Context, rc domain.RequestContext, id int64) error {
	if err := requireOperator(rc); err != nil {
		return err
	}
	err := s.Store.InTx(ctx, "spot", func(ctx context.Context, r repositories.Repos) error {
		sp, err := r.Spots.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sp.OperatorID != rc.OperatorID {
			return domain.NotFoundError{Resource: "spot"}
		}
		all, err := r.Bookings.ListBySpot(ctx, sp.ID, false)
		if err != nil {
			return err
		}
		if len(all) > 0 {
			return domain.InvalidTransitionError{Entity: "spot", From: string(sp.Status), To: "DELETED", Msg: "spot has bookings; cancel it instead"}
		}
		return r.Spots.Delete(ctx, sp.ID)
	})
	if err != nil {
		return wrapErr("delete spot", err)
	}
	s.log("spot", "delete", "spot_id=%d", id)
	return nil
}
