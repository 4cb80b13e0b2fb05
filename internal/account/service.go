package account

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/quickbasket/internal/auth"
	"github.com/example/quickbasket/internal/infrastructure/store"
	"github.com/example/quickbasket/internal/model"
)

const RoleCustomer = "customer"

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrAddressNotFound    = errors.New("address not found")
	ErrMissingAddress     = errors.New("address line, city, state and zip code are required")
	ErrMissingName        = errors.New("name is required")
)

// Service covers registration, login checks, profile, addresses and their
// default-address exclusivity.
type Service struct {
	accounts store.AccountStore
}

func NewService(accounts store.AccountStore) *Service {
	return &Service{accounts: accounts}
}

// Register creates a customer account. Password rules live in the auth
// package.
func (s *Service) Register(ctx context.Context, emailAddr, password, name, phone string) (*model.User, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))
	if emailAddr == "" || !strings.Contains(emailAddr, "@") {
		return nil, ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        emailAddr,
		PasswordHash: hash,
		Name:         name,
		Phone:        phone,
		Role:         RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Authenticate checks credentials and returns the user. The same error
// covers unknown email and wrong password.
func (s *Service) Authenticate(ctx context.Context, emailAddr, password string) (*model.User, error) {
	emailAddr = strings.ToLower(strings.TrimSpace(emailAddr))

	u, err := s.accounts.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.accounts.GetUser(ctx, userID)
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(current, u.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.accounts.UpdateUserPassword(ctx, userID, hash)
}

// UpdateProfile sets the display name and phone number.
func (s *Service) UpdateProfile(ctx context.Context, userID, name, phone string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	if err := s.accounts.UpdateUserProfile(ctx, userID, name, strings.TrimSpace(phone)); err != nil {
		return nil, err
	}
	return s.accounts.GetUser(ctx, userID)
}

// Addresses

// AddressInput is the create/update payload for an address.
type AddressInput struct {
	Label        string `json:"label"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
	IsDefault    bool   `json:"is_default"`
}

func (in AddressInput) validate() error {
	if in.AddressLine1 == "" || in.City == "" || in.State == "" || in.ZipCode == "" {
		return ErrMissingAddress
	}
	return nil
}

func (s *Service) ListAddresses(ctx context.Context, userID string) ([]model.Address, error) {
	return s.accounts.ListAddresses(ctx, userID)
}

// CreateAddress adds an address. The user's first address becomes the
// default; marking one default unsets all others.
func (s *Service) CreateAddress(ctx context.Context, userID string, in AddressInput) (*model.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.accounts.ListAddresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	isDefault := in.IsDefault || len(existing) == 0

	now := time.Now()
	a := &model.Address{
		ID:           uuid.New().String(),
		UserID:       userID,
		Label:        in.Label,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		State:        in.State,
		ZipCode:      in.ZipCode,
		Country:      in.Country,
		IsDefault:    isDefault,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if a.Country == "" {
		a.Country = "India"
	}

	if err := s.accounts.CreateAddress(ctx, a); err != nil {
		return nil, err
	}
	if a.IsDefault {
		if err := s.accounts.ClearDefaultAddress(ctx, userID, a.ID); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (s *Service) UpdateAddress(ctx context.Context, userID, addressID string, in AddressInput) (*model.Address, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	a, err := s.accounts.GetAddress(ctx, userID, addressID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}

	a.Label = in.Label
	a.AddressLine1 = in.AddressLine1
	a.AddressLine2 = in.AddressLine2
	a.City = in.City
	a.State = in.State
	a.ZipCode = in.ZipCode
	if in.Country != "" {
		a.Country = in.Country
	}
	a.IsDefault = in.IsDefault

	if err := s.accounts.UpdateAddress(ctx, a); err != nil {
		return nil, err
	}
	if a.IsDefault {
		if err := s.accounts.ClearDefaultAddress(ctx, userID, a.ID); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (s *Service) DeleteAddress(ctx context.Context, userID, addressID string) error {
	err := s.accounts.DeleteAddress(ctx, userID, addressID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAddressNotFound
	}
	return err
}
