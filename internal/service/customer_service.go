package service

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CustomerService is admin management of customer accounts
type CustomerService struct {
	users  UserStore
	logger *zap.Logger
}

func NewCustomerService(users UserStore) *CustomerService {
	return &CustomerService{users: users, logger: util.ComponentLogger("customers")}
}

// CustomerInput creates or edits a customer. Password is optional on edit.
type CustomerInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"max=32"`
	Password string `json:"password" validate:"omitempty,min=8,max=72" trim:"-"`
	Status   string `json:"status" validate:"omitempty,oneof=Active Inactive"`
}

func (s *CustomerService) List(ctx context.Context) ([]models.User, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.List")
	defer span.End()

	users, err := s.users.ListUsersByRole(ctx, models.RoleCustomer)
	return users, mapStoreError(err)
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if u.Role != models.RoleCustomer {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.Create")
	defer span.End()

	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, NewValidationError("password", "password is required")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Phone:        optional(in.Phone),
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		Status:       models.UserStatusActive,
	}
	if in.Status != "" {
		u.Status = in.Status
	}

	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, mapStoreError(err)
	}
	s.logger.Info("Customer created", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *CustomerService) Update(ctx context.Context, id int64, in CustomerInput) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.Update")
	defer span.End()

	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	u.Name = strings.TrimSpace(in.Name)
	u.Email = strings.TrimSpace(in.Email)
	u.Phone = optional(in.Phone)
	if in.Status != "" {
		u.Status = in.Status
	}
	if in.Password != "" {
		if u.PasswordHash, err = hashPassword(in.Password); err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, mapStoreError(err)
	}
	return u, nil
}

func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	return mapStoreError(s.users.DeleteUser(ctx, id, models.RoleCustomer))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
