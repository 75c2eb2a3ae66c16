package services

import (
	"context"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/utils"
)

type CategoryService struct {
	Deps
}

func (s CategoryService) Create(ctx context.Context, rc domain.RequestContext, name, description string) (models.Category, error) {
	if err := requireOperator(rc); err != nil {
		return models.Category{}, err
	}
	name = utils.NormalizeSpace(name)
	if name == "" {
		return models.Category{}, domain.ValidationError{Field: "name", Msg: "is required"}
	}
	c := models.Category{OperatorID: rc.OperatorID, Name: name, Description: strings.TrimSpace(description)}
	if err := s.Store.Repos().Categories.Create(ctx, &c); err != nil {
		return models.Category{}, wrapErr("create category", err)
	}
	s.log("category", "create", "category_id=%d", c.ID)
	return c, nil
}

func (s CategoryService) List(ctx context.Context, rc domain.RequestContext) ([]models.Category, error) {
	if err := requireOperator(rc); err != nil {
		return nil, err
	}
	list, err := s.Store.Repos().Categories.List(ctx, rc.OperatorID)
	return list, wrapErr("list categories", err)
}

func (s CategoryService) PublicList(ctx context.Context) ([]models.Category, error) {
	list, err := s.Store.Repos().Categories.List(ctx, 0)
	return list, wrapErr("list categories", err)
}

func (s CategoryService) owned(ctx context.Context, rc domain.RequestContext, id int64) (models.Category, error) {
	if err := requireOperator(rc); err != nil {
		return models.Category{}, err
	}
	c, err := s.Store.Repos().Categories.Get(ctx, id)
	if err != nil {
		return models.Category{}, wrapErr("get category", err)
	}
	if c.OperatorID != rc.OperatorID {
		return models.Category{}, domain.NotFoundError{Resource: "category"}
	}
	return c, nil
}

func (s CategoryService) Update(ctx context.Context, rc domain.RequestContext, id int64, name, description *string) (models.Category, error) {
	c, err := s.owned(ctx, rc, id)
	if err != nil {
		return models.Category{}, err
	}
	if name != nil {
		n := utils.NormalizeSpace(*name)
		if n == "" {
			return models.Category{}, domain.ValidationError{Field: "name", Msg: "must not be empty"}
		}
		c.Name = n
	}
	if description != nil {
		c.Description = strings.TrimSpace(*description)
	}
	if err := s.Store.Repos().Categories.Update(ctx, c); err != nil {
		return models.Category{}, wrapErr("update category", err)
	}
	return c, nil
}

// Delete refuses categories that still classify tours.
func (s CategoryService) Delete(ctx context.Context, rc domain.RequestContext, id int64) error {
	c, err := s.owned(ctx, rc, id)
	if err != nil {
		return err
	}
	repos := s.Store.Repos()
	n, err := repos.Categories.CountTours(ctx, c.ID)
	if err != nil {
		return wrapErr("delete category", err)
	}
	if n > 0 {
		return domain.InvalidTransitionError{Entity: "category", From: "IN_USE", Msg: "category is used by tours"}
	}
	if err := repos.Categories.Delete(ctx, c.ID); err != nil {
		return wrapErr("delete category", err)
	}
	s.log("category", "delete", "category_id=%d", c.ID)
	return nil
}
