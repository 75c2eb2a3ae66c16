package services

import (
	"context"
	"strings"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/utils"
)

// CustomerService serves the operator's customer list and both profile endpoints.
type CustomerService struct {
	Deps
}

type ProfileInput struct {
	Name  *string
	Email *string
	Phone *string
}

func (s CustomerService) List(ctx context.Context, rc domain.RequestContext, search string, page domain.Pagination) ([]models.CustomerSummary, domain.Pagination, error) {
	if err := requireOperator(rc); err != nil {
		return nil, page, err
	}
	page = page.Normalize()
	list, total, err := s.Store.Repos().Customers.ListForOperator(ctx, rc.OperatorID, search, page)
	if err != nil {
		return nil, page, wrapErr("list customers", err)
	}
	page.Total = total
	return list, page, nil
}

// Get shows a customer only to operators they booked with.
func (s CustomerService) Get(ctx context.Context, rc domain.RequestContext, id int64) (models.CustomerSummary, error) {
	if err := requireOperator(rc); err != nil {
		return models.CustomerSummary{}, err
	}
	c, err := s.Store.Repos().Customers.GetForOperator(ctx, rc.OperatorID, id)
	return c, wrapErr("get customer", err)
}

func (s CustomerService) Profile(ctx context.Context, rc domain.RequestContext) (models.Customer, error) {
	if err := requireCustomer(rc); err != nil {
		return models.Customer{}, err
	}
	c, err := s.Store.Repos().Customers.Get(ctx, rc.CustomerID)
	return c, wrapErr("get profile", err)
}

func applyProfile(name, email, phone *string, in ProfileInput) error {
	if in.Name != nil {
		n := utils.NormalizeSpace(*in.Name)
		if n == "" {
			return domain.ValidationError{Field: "name", Msg: "must not be empty"}
		}
		*name = n
	}
	if in.Email != nil {
		e := utils.NormalizeEmail(*in.Email)
		if !strings.Contains(e, "@") {
			return domain.ValidationError{Field: "email", Msg: "must be a valid address"}
		}
		*email = e
	}
	if in.Phone != nil {
		*phone = strings.TrimSpace(*in.Phone)
	}
	return nil
}

// UpdateProfile changes contact details only; the login e-mail on the user row is unchanged.
func (s CustomerService) UpdateProfile(ctx context.Context, rc domain.RequestContext, in ProfileInput) (models.Customer, error) {
	c, err := s.Profile(ctx, rc)
	if err != nil {
		return models.Customer{}, err
	}
	if err := applyProfile(&c.Name, &c.Email, &c.Phone, in); err != nil {
		return models.Customer{}, err
	}
	c.UpdatedAt = s.now()
	if err := s.Store.Repos().Customers.Update(ctx, c); err != nil {
		return models.Customer{}, wrapErr("update profile", err)
	}
	s.log("customer", "update_profile", "customer_id=%d", c.ID)
	return c, nil
}

func (s CustomerService) OperatorProfile(ctx context.Context, rc domain.RequestContext) (models.Operator, error) {
	if err := requireOperator(rc); err != nil {
		return models.Operator{}, err
	}
	o, err := s.Store.Repos().Operators.Get(ctx, rc.OperatorID)
	return o, wrapErr("get operator profile", err)
}

func (s CustomerService) UpdateOperatorProfile(ctx context.Context, rc domain.RequestContext, in ProfileInput) (models.Operator, error) {
	o, err := s.OperatorProfile(ctx, rc)
	if err != nil {
		return models.Operator{}, err
	}
	if err := applyProfile(&o.Name, &o.Email, &o.Phone, in); err != nil {
		return models.Operator{}, err
	}
	o.UpdatedAt = s.now()
	if err := s.Store.Repos().Operators.Update(ctx, o); err != nil {
		return models.Operator{}, wrapErr("update operator profile", err)
	}
	s.log("operator", "update_profile", "operator_id=%d", o.ID)
	return o, nil
}
