package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/binrental/binrental-backend/internal/domain"
	"github.com/binrental/binrental-backend/internal/ids"
)

const binCodeLen = 5

// maxCodeAttempts bounds the collision-retry loop for generated bin codes.
const maxCodeAttempts = 20

// RegisterBinInput represents the input for registering a physical bin.
type RegisterBinInput struct {
	BinCode    string // optional; generated when empty
	BinTypeID  uuid.UUID
	BinSizeID  uuid.UUID
	SupplierID *uuid.UUID // admin may register bins into the unassigned pool
	Notes      string
}

// UpdateBinInput carries the mutable bin fields. Nil fields are left unchanged.
type UpdateBinInput struct {
	Status *domain.BinStatus
	Notes  *string
}

// RegistryService manages the physical bin inventory.
type RegistryService struct {
	BinRepo domain.BinRepository
}

// NewRegistryService creates a new RegistryService instance.
func NewRegistryService(binRepo domain.BinRepository) *RegistryService {
	return &RegistryService{BinRepo: binRepo}
}

// RegisterBin registers a new bin with initial status available.
// Suppliers always own the bins they register; admins may register unassigned
// pool bins. A missing code is generated with collision retry against the live
// registry.
func (s *RegistryService) RegisterBin(ctx context.Context, actor domain.Actor, input RegisterBinInput) (*domain.PhysicalBin, error) {
	if input.BinTypeID == uuid.Nil || input.BinSizeID == uuid.Nil {
		return nil, domain.NewValidationError("bin type and size are required")
	}

	supplierID := input.SupplierID
	switch actor.Role {
	case domain.RoleSupplier:
		id := actor.ID
		supplierID = &id
	case domain.RoleAdmin:
		// keep the requested owner, possibly none
	default:
		return nil, fmt.Errorf("only suppliers and admins can register bins: %w", domain.ErrForbidden)
	}

	code := input.BinCode
	if code == "" {
		generated, err := s.GenerateBinCode(ctx)
		if err != nil {
			return nil, err
		}
		code = generated
	} else {
		exists, err := s.BinRepo.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &domain.ConflictError{Msg: "bin code already exists", BinCodes: []string{code}}
		}
	}

	bin := &domain.PhysicalBin{
		ID:         uuid.New(),
		BinCode:    code,
		BinTypeID:  input.BinTypeID,
		BinSizeID:  input.BinSizeID,
		SupplierID: supplierID,
		Status:     domain.BinStatusAvailable,
		Notes:      input.Notes,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := bin.Validate(); err != nil {
		return nil, err
	}

	if err := s.BinRepo.Create(ctx, bin); err != nil {
		return nil, err
	}

	return bin, nil
}

// GenerateBinCode returns a free human-readable bin code, retrying on
// collision against the live registry.
func (s *RegistryService) GenerateBinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := ids.Code(ids.PrefixBin, binCodeLen)
		exists, err := s.BinRepo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", errors.New("could not generate a free bin code")
}

// GetBin retrieves a bin by its internal id.
func (s *RegistryService) GetBin(ctx context.Context, id uuid.UUID) (*domain.PhysicalBin, error) {
	return s.BinRepo.GetByID(ctx, id)
}

// GetBinByCode retrieves a bin by its human-readable code.
func (s *RegistryService) GetBinByCode(ctx context.Context, code string) (*domain.PhysicalBin, error) {
	return s.BinRepo.GetByCode(ctx, code)
}

// ListBins lists bins matching the filter. Suppliers only ever see their own
// inventory regardless of the requested filter.
func (s *RegistryService) ListBins(ctx context.Context, actor domain.Actor, filter domain.BinFilter) ([]*domain.PhysicalBin, error) {
	if actor.Role == domain.RoleSupplier {
		id := actor.ID
		filter.SupplierID = &id
	}
	return s.BinRepo.List(ctx, filter)
}

// UpdateBin mutates a bin's status and notes. Supplier-owned bins may only be
// mutated by their owner or an admin.
func (s *RegistryService) UpdateBin(ctx context.Context, actor domain.Actor, binID uuid.UUID, input UpdateBinInput) (*domain.PhysicalBin, error) {
	bin, err := s.BinRepo.GetByID(ctx, binID)
	if err != nil {
		return nil, err
	}

	if actor.Role == domain.RoleSupplier && !bin.IsOwnedBy(actor.ID) {
		return nil, fmt.Errorf("bin %s is not owned by supplier %s: %w", bin.BinCode, actor.ID, domain.ErrForbidden)
	}
	if actor.Role == domain.RoleCustomer {
		return nil, fmt.Errorf("customers cannot mutate bins: %w", domain.ErrForbidden)
	}

	if input.Status != nil {
		bin.Status = *input.Status
	}
	if input.Notes != nil {
		bin.Notes = *input.Notes
	}
	bin.UpdatedAt = time.Now()

	if err := bin.Validate(); err != nil {
		return nil, err
	}

	if err := s.BinRepo.Update(ctx, bin); err != nil {
		return nil, err
	}

	return bin, nil
}

// AssignOwner moves a bin to a supplier. Admin only.
func (s *RegistryService) AssignOwner(ctx context.Context, actor domain.Actor, binID, supplierID uuid.UUID) (*domain.PhysicalBin, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("only admins can reassign bin ownership: %w", domain.ErrForbidden)
	}

	bin, err := s.BinRepo.GetByID(ctx, binID)
	if err != nil {
		return nil, err
	}

	bin.SupplierID = &supplierID
	bin.UpdatedAt = time.Now()

	if err := s.BinRepo.Update(ctx, bin); err != nil {
		return nil, err
	}

	return bin, nil
}

// DeleteBin removes a bin from the registry. Deletion is forbidden while the
// bin is claimed by a service request.
func (s *RegistryService) DeleteBin(ctx context.Context, actor domain.Actor, binID uuid.UUID) error {
	bin, err := s.BinRepo.GetByID(ctx, binID)
	if err != nil {
		return err
	}

	if actor.Role == domain.RoleSupplier && !bin.IsOwnedBy(actor.ID) {
		return fmt.Errorf("bin %s is not owned by supplier %s: %w", bin.BinCode, actor.ID, domain.ErrForbidden)
	}
	if actor.Role == domain.RoleCustomer {
		return fmt.Errorf("customers cannot delete bins: %w", domain.ErrForbidden)
	}

	if bin.CurrentRequestID != nil {
		return fmt.Errorf("bin %s is currently in use: %w", bin.BinCode, domain.ErrInvalidState)
	}

	return s.BinRepo.Delete(ctx, binID)
}
