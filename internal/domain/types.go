package domain

import "strings"

// Role is the caller kind carried by a verified token.
type Role string

const (
	RoleOperator Role = "OPERATOR"
	RoleCustomer Role = "CUSTOMER"
)

// ParseRole accepts any casing; unknown roles yield "".
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleOperator:
		return RoleOperator
	case RoleCustomer:
		return RoleCustomer
	default:
		return ""
	}
}

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize clamps paging input to sane bounds.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// RequestContext carries the authenticated caller. OperatorID is set for operators,
// CustomerID for customers.
type RequestContext struct {
	UserID     int64 `json:"userId"`
	Role       Role  `json:"role"`
	OperatorID int64 `json:"operatorId,omitempty"`
	CustomerID int64 `json:"customerId,omitempty"`
}

func (rc RequestContext) IsOperator() bool {
	return rc.Role == RoleOperator && rc.OperatorID > 0
}

func (rc RequestContext) IsCustomer() bool {
	return rc.Role == RoleCustomer && rc.CustomerID > 0
}

// Verify rejects claims that do not identify a known caller.
func (rc RequestContext) Verify() error {
	if rc.UserID <= 0 {
		return UnauthorizedError{Msg: "missing caller identity"}
	}
	switch rc.Role {
	case RoleOperator:
		if rc.OperatorID <= 0 {
			return UnauthorizedError{Msg: "operator claim without operator id"}
		}
	case RoleCustomer:
		if rc.CustomerID <= 0 {
			return UnauthorizedError{Msg: "customer claim without customer id"}
		}
	default:
		return UnauthorizedError{Msg: "unknown role"}
	}
	return nil
}
