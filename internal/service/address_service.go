package service

import (
	"context"
	"strings"

	"storefront/internal/models"
	"storefront/internal/util"
)

// AddressInput is a shipping address as submitted by a client
type AddressInput struct {
	Name       string `json:"name" validate:"required,max=255"`
	Phone      string `json:"phone" validate:"required,max=32"`
	Street     string `json:"street" validate:"required,max=255"`
	Barangay   string `json:"barangay" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=255"`
	Province   string `json:"province" validate:"required,max=255"`
	PostalCode string `json:"postal_code" validate:"required,max=16"`
	IsDefault  bool   `json:"is_default"`
}

func (in *AddressInput) trim() {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Street = strings.TrimSpace(in.Street)
	in.Barangay = strings.TrimSpace(in.Barangay)
	in.City = strings.TrimSpace(in.City)
	in.Province = strings.TrimSpace(in.Province)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
}

func (in *AddressInput) snapshot() models.AddressSnapshot {
	in.trim()
	return models.AddressSnapshot{
		Name:       in.Name,
		Phone:      in.Phone,
		Street:     in.Street,
		Barangay:   in.Barangay,
		City:       in.City,
		Province:   in.Province,
		PostalCode: in.PostalCode,
	}
}

func (in *AddressInput) apply(addr *models.Address) {
	snap := in.snapshot()
	addr.Name = snap.Name
	addr.Phone = snap.Phone
	addr.Street = snap.Street
	addr.Barangay = snap.Barangay
	addr.City = snap.City
	addr.Province = snap.Province
	addr.PostalCode = snap.PostalCode
	addr.IsDefault = in.IsDefault
}

// AddressService manages user address books
type AddressService struct {
	store AddressStore
}

func NewAddressService(store AddressStore) *AddressService {
	return &AddressService{store: store}
}

func (s *AddressService) List(ctx context.Context, userID int64) ([]models.Address, error) {
	ctx, span := util.StartSpan(ctx, "AddressService.List")
	defer span.End()

	addrs, err := s.store.ListAddresses(ctx, userID)
	return addrs, mapStoreError(err)
}

func (s *AddressService) Get(ctx context.Context, userID, id int64) (*models.Address, error) {
	addr, err := s.store.GetAddress(ctx, userID, id)
	return addr, mapStoreError(err)
}

// GetDefault returns the default address, the oldest address when none is
// flagged, or nil when the user has none.
func (s *AddressService) GetDefault(ctx context.Context, userID int64) (*models.Address, error) {
	addr, err := s.store.GetDefaultAddress(ctx, userID)
	if err := mapStoreError(err); err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return addr, nil
}

func (s *AddressService) Create(ctx context.Context, userID int64, in AddressInput) (*models.Address, error) {
	ctx, span := util.StartSpan(ctx, "AddressService.Create")
	defer span.End()

	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	addr := &models.Address{UserID: userID}
	in.apply(addr)
	if err := s.store.CreateAddress(ctx, addr); err != nil {
		return nil, mapStoreError(err)
	}
	return addr, nil
}

func (s *AddressService) Update(ctx context.Context, userID, id int64, in AddressInput) (*models.Address, error) {
	ctx, span := util.StartSpan(ctx, "AddressService.Update")
	defer span.End()

	if err := validateStruct(&in); err != nil {
		return nil, err
	}

	addr := &models.Address{ID: id, UserID: userID}
	in.apply(addr)
	if err := s.store.UpdateAddress(ctx, addr); err != nil {
		return nil, mapStoreError(err)
	}
	return addr, nil
}

func (s *AddressService) Delete(ctx context.Context, userID, id int64) error {
	return mapStoreError(s.store.DeleteAddress(ctx, userID, id))
}
