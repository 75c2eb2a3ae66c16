package services

import (
	"context"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/repositories"
	"tourbook/internal/utils"
)

type TourService struct {
	Deps
}

type TourInput struct {
	CategoryID    *int64
	Title         string
	Description   string
	Price         int64
	Currency      string
	CoverImageURL string
}

// TourDetail is a published tour with the departures customers can still book.
type TourDetail struct {
	models.Tour
	Spots []models.Spot `json:"spots"`
}

func (s TourService) checkCategory(ctx context.Context, r repositories.Repos, rc domain.RequestContext, id *int64) error {
	if id == nil {
		return nil
	}
	c, err := r.Categories.Get(ctx, *id)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.ValidationError{Field: "categoryId", Msg: "unknown category"}
		}
		return err
	}
	if c.OperatorID != rc.OperatorID {
		return domain.ValidationError{Field: "categoryId", Msg: "unknown category"}
	}
	return nil
}

func (s TourService) Create(ctx context.Context, rc domain.RequestContext, in TourInput) (models.Tour, error) {
	if err := requireOperator(rc); err != nil {
		return models.Tour{}, err
	}
	title := utils.NormalizeSpace(in.Title)
	if title == "" {
		return models.Tour{}, domain.ValidationError{Field: "title", Msg: "is required"}
	}
	if in.Price < 0 {
		return models.Tour{}, domain.ValidationError{Field: "price", Msg: "must not be negative"}
	}
	currency, ok := utils.NormalizeCurrency(in.Currency)
	if !ok {
		return models.Tour{}, domain.ValidationError{Field: "currency", Msg: "must be a 3-letter ISO code"}
	}

	repos := s.Store.Repos()
	if err := s.checkCategory(ctx, repos, rc, in.CategoryID); err != nil {
		return models.Tour{}, wrapErr("create tour", err)
	}
	now := s.now()
	t := models.Tour{
		OperatorID:    rc.OperatorID,
		CategoryID:    in.CategoryID,
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		Price:         in.Price,
		Currency:      currency,
		Status:        domain.TourDraft,
		CoverImageURL: strings.TrimSpace(in.CoverImageURL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repos.Tours.Create(ctx, &t); err != nil {
		return models.Tour{}, wrapErr("create tour", err)
	}
	s.log("tour", "create", "tour_id=%d title=%q", t.ID, t.Title)
	return t, nil
}

func (s TourService) Get(ctx context.Context, rc domain.RequestContext, id int64) (models.Tour, error) {
	if err := requireOperator(rc); err != nil {
		return models.Tour{}, err
	}
	t, err := s.Store.Repos().Tours.Get(ctx, id)
	if err != nil {
		return models.Tour{}, wrapErr("get tour", err)
	}
	if t.OperatorID != rc.OperatorID {
		return models.Tour{}, domain.NotFoundError{Resource: "tour"}
	}
	return t, nil
}

func (s TourService) List(ctx context.Context, rc domain.RequestContext, f models.TourFilter, page domain.Pagination) ([]models.Tour, domain.Pagination, error) {
	if err := requireOperator(rc); err != nil {
		return nil, page, err
	}
	f.OperatorID = rc.OperatorID
	f.PublishedOnly = false
	return s.list(ctx, f, page)
}

func (s TourService) list(ctx context.Context, f models.TourFilter, page domain.Pagination) ([]models.Tour, domain.Pagination, error) {
	page = page.Normalize()
	list, total, err := s.Store.Repos().Tours.List(ctx, f, page)
	if err != nil {
		return nil, page, wrapErr("list tours", err)
	}
	page.Total = total
	return list, page, nil
}

func (s TourService) Update(ctx context.Context, rc domain.RequestContext, id int64, in models.TourUpdate) (models.Tour, error) {
	t, err := s.Get(ctx, rc, id)
	if err != nil {
		return models.Tour{}, err
	}
	if t.Status.Terminal() {
		return models.Tour{}, domain.InvalidTransitionError{Entity: "tour", From: string(t.Status), Msg: "closed tours cannot be edited"}
	}
	repos := s.Store.Repos()
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, repos, rc, in.CategoryID); err != nil {
			return models.Tour{}, wrapErr("update tour", err)
		}
		t.CategoryID = in.CategoryID
	}
	if in.Title != nil {
		title := utils.NormalizeSpace(*in.Title)
		if title == "" {
			return models.Tour{}, domain.ValidationError{Field: "title", Msg: "must not be empty"}
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return models.Tour{}, domain.ValidationError{Field: "price", Msg: "must not be negative"}
		}
		t.Price = *in.Price
	}
	if in.Currency != nil {
		c, ok := utils.NormalizeCurrency(*in.Currency)
		if !ok {
			return models.Tour{}, domain.ValidationError{Field: "currency", Msg: "must be a 3-letter ISO code"}
		}
		t.Currency = c
	}
	if in.CoverImageURL != nil {
		t.CoverImageURL = strings.TrimSpace(*in.CoverImageURL)
	}
	t.UpdatedAt = s.now()
	if err := repos.Tours.Update(ctx, t); err != nil {
		return models.Tour{}, wrapErr("update tour", err)
	}
	s.log("tour", "update", "tour_id=%d", t.ID)
	return t, nil
}

// SetPublished toggles catalogue visibility. Only ACTIVE tours can be published.
func (s TourService) SetPublished(ctx context.Context, rc domain.RequestContext, id int64, published bool) (models.Tour, error) {
	t, err := s.Get(ctx, rc, id)
	if err != nil {
		return models.Tour{}, err
	}
	if published && t.Status != domain.TourActive {
		return models.Tour{}, domain.InvalidTransitionError{Entity: "tour", From: string(t.Status), Msg: "only active tours can be published"}
	}
	t.Published = published
	t.UpdatedAt = s.now()
	if err := s.Store.Repos().Tours.Update(ctx, t); err != nil {
		return models.Tour{}, wrapErr("publish tour", err)
	}
	s.log("tour", "publish", "tour_id=%d published=%t", t.ID, published)
	return t, nil
}

// SetStatus moves a tour through its lifecycle. Cancelling needs every booking closed first.
func (s TourService) SetStatus(ctx context.Context, rc domain.RequestContext, id int64, status domain.TourStatus) (models.Tour, error) {
	t, err := s.Get(ctx, rc, id)
	if err != nil {
		return models.Tour{}, err
	}
	repos := s.Store.Repos()
	if status == domain.TourCancelled {
		for _, st := range []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed} {
			_, total, err := repos.Bookings.List(ctx, models.BookingFilter{OperatorID: rc.OperatorID, TourID: t.ID, Status: st}, domain.Pagination{Page: 1, PageSize: 1})
			if err != nil {
				return models.Tour{}, wrapErr("set tour status", err)
			}
			if total > 0 {
				return models.Tour{}, domain.InvalidTransitionError{Entity: "tour", From: string(t.Status), To: string(domain.TourCancelled), Msg: "tour has active bookings"}
			}
		}
	}
	if err := t.Transition(status); err != nil {
		return models.Tour{}, err
	}
	if t.Status != domain.TourActive {
		t.Published = false
	}
	t.UpdatedAt = s.now()
	if err := repos.Tours.Update(ctx, t); err != nil {
		return models.Tour{}, wrapErr("set tour status", err)
	}
	s.log("tour", "status", "tour_id=%d status=%s", t.ID, t.Status)
	return t, nil
}

func (s TourService) Delete(ctx context.Context, rc domain.RequestContext, id int64) error {
	t, err := s.Get(ctx, rc, id)
	if err != nil {
		return err
	}
	repos := s.Store.Repos()
	n, err := repos.Tours.CountSpots(ctx, t.ID)
	if err != nil {
		return wrapErr("delete tour", err)
	}
	if n > 0 {
		return domain.InvalidTransitionError{Entity: "tour", From: string(t.Status), To: "DELETED", Msg: "tour has scheduled spots"}
	}
	if err := repos.Tours.Delete(ctx, t.ID); err != nil {
		return wrapErr("delete tour", err)
	}
	s.log("tour", "delete", "tour_id=%d", t.ID)
	return nil
}

// PublicList shows published ACTIVE tours only.
func (s TourService) PublicList(ctx context.Context, f models.TourFilter, page domain.Pagination) ([]models.Tour, domain.Pagination, error) {
	f.OperatorID = 0
	f.Status = ""
	f.PublishedOnly = true
	return s.list(ctx, f, page)
}

func (s TourService) PublicGet(ctx context.Context, id int64) (TourDetail, error) {
	repos := s.Store.Repos()
	t, err := repos.Tours.Get(ctx, id)
	if err != nil {
		return TourDetail{}, wrapErr("get tour", err)
	}
	if !t.Bookable() {
		return TourDetail{}, domain.NotFoundError{Resource: "tour"}
	}
	now := s.now()
	spots, err := repos.Spots.ListByTour(ctx, t.ID, &now)
	if err != nil {
		return TourDetail{}, wrapErr("get tour", err)
	}
	return TourDetail{Tour: t, Spots: spots}, nil
}
