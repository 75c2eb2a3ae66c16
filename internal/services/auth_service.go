package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"tourbook/internal/domain"
	"tourbook/internal/domain/models"
	"tourbook/internal/repositories"
	"tourbook/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// AuthService registers accounts and issues the bearer tokens the HTTP layer verifies.
type AuthService struct {
	Deps
	Secret []byte
	TTL    time.Duration
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

// Claims is the JWT payload.
type Claims struct {
	UserID     int64  `json:"user_id"`
	Role       string `json:"role"`
	OperatorID int64  `json:"operator_id,omitempty"`
	CustomerID int64  `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

func (in RegisterInput) normalize() (RegisterInput, error) {
	in.Name = utils.NormalizeSpace(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" {
		return in, domain.ValidationError{Field: "name", Msg: "is required"}
	}
	if !strings.Contains(in.Email, "@") {
		return in, domain.ValidationError{Field: "email", Msg: "must be a valid address"}
	}
	if len(in.Password) < minPasswordLen {
		return in, domain.ValidationError{Field: "password", Msg: "must be at least 8 characters"}
	}
	return in, nil
}

// Register creates a customer profile and its login.
func (s AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	return s.register(ctx, in, domain.RoleCustomer)
}

// RegisterOperator creates a new tenant and its first login.
func (s AuthService) RegisterOperator(ctx context.Context, in RegisterInput) (AuthResult, error) {
	return s.register(ctx, in, domain.RoleOperator)
}

func (s AuthService) register(ctx context.Context, in RegisterInput, role domain.Role) (AuthResult, error) {
	in, err := in.normalize()
	if err != nil {
		return AuthResult{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResult{}, domain.InternalError{Msg: "hash password", Err: err}
	}

	var user models.User
	err = s.Store.InTx(ctx, "user", func(ctx context.Context, r repositories.Repos) error {
		if _, err := r.Users.GetByEmail(ctx, in.Email); err == nil {
			return domain.ValidationError{Field: "email", Msg: "already registered"}
		} else if !domain.IsNotFound(err) {
			return err
		}
		user = models.User{Name: in.Name, Email: in.Email, PasswordHash: string(hash), Role: role}
		switch role {
		case domain.RoleOperator:
			o := models.Operator{Name: in.Name, Email: in.Email, Phone: in.Phone}
			if err := r.Operators.Create(ctx, &o); err != nil {
				return err
			}
			user.OperatorID = &o.ID
		default:
			c := models.Customer{Name: in.Name, Email: in.Email, Phone: in.Phone}
			if err := r.Customers.Create(ctx, &c); err != nil {
				return err
			}
			user.CustomerID = &c.ID
		}
		return r.Users.Create(ctx, &user)
	})
	if err != nil {
		return AuthResult{}, wrapErr("register", err)
	}
	user.CreatedAt = s.now()
	s.log("auth", "register", "user_id=%d role=%s", user.ID, role)
	return s.issue(user)
}

func (s AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.Store.Repos().Users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if domain.IsNotFound(err) {
			return AuthResult{}, domain.UnauthorizedError{Msg: "invalid email or password"}
		}
		return AuthResult{}, wrapErr("login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, domain.UnauthorizedError{Msg: "invalid email or password"}
	}
	s.log("auth", "login", "user_id=%d", u.ID)
	return s.issue(u)
}

func (s AuthService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 24 * time.Hour
}

func (s AuthService) issue(u models.User) (AuthResult, error) {
	if len(s.Secret) == 0 {
		return AuthResult{}, domain.InternalError{Msg: "jwt secret not configured"}
	}
	rc := u.RequestContext()
	now := s.now()
	exp := now.Add(s.ttl())
	claims := Claims{
		UserID:     rc.UserID,
		Role:       string(rc.Role),
		OperatorID: rc.OperatorID,
		CustomerID: rc.CustomerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return AuthResult{}, domain.InternalError{Msg: "sign token", Err: err}
	}
	return AuthResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// ParseToken verifies signature and expiry and returns the caller it identifies.
func (s AuthService) ParseToken(raw string) (domain.RequestContext, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.RequestContext{}, domain.UnauthorizedError{Msg: "token expired"}
		}
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: "invalid token"}
	}
	rc := domain.RequestContext{
		UserID:     claims.UserID,
		Role:       domain.ParseRole(claims.Role),
		OperatorID: claims.OperatorID,
		CustomerID: claims.CustomerID,
	}
	if err := rc.Verify(); err != nil {
		return domain.RequestContext{}, err
	}
	return rc, nil
}
