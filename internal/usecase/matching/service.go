package matching

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/binrental/binrental-backend/internal/domain"
)

// MatchingService finds suppliers able to fulfill a multi-item order from
// their available inventory.
type MatchingService struct {
	BinRepo domain.BinRepository
}

// NewMatchingService creates a new MatchingService instance.
func NewMatchingService(binRepo domain.BinRepository) *MatchingService {
	return &MatchingService{BinRepo: binRepo}
}

// FindQualifiedSuppliers returns the suppliers whose available inventory covers
// every requirement simultaneously: for each (type, size) line, the supplier's
// count of available matching bins must be at least the requested quantity.
// The result is sorted for determinism. An empty result means no supplier
// qualifies and the order must be rejected before creation.
//
// Matching reads a live inventory snapshot and takes no holds; the later bin
// assignment re-validates availability per bin.
func (s *MatchingService) FindQualifiedSuppliers(ctx context.Context, requirements []domain.BinRequirement) ([]uuid.UUID, error) {
	if len(requirements) == 0 {
		return nil, domain.NewValidationError("at least one bin requirement is required")
	}

	// Collapse duplicate (type, size) lines into summed quantities.
	type key struct {
		typeID uuid.UUID
		sizeID uuid.UUID
	}
	needed := make(map[key]int)
	for _, req := range requirements {
		if req.Quantity <= 0 {
			return nil, domain.NewValidationError("bin requirement quantity must be positive")
		}
		if req.BinTypeID == uuid.Nil || req.BinSizeID == uuid.Nil {
			return nil, domain.NewValidationError("bin requirement must specify a type and size")
		}
		needed[key{req.BinTypeID, req.BinSizeID}] += req.Quantity
	}

	// Intersect the qualifying supplier sets across all requirements.
	var qualified map[uuid.UUID]bool
	for k, quantity := range needed {
		counts, err := s.BinRepo.CountAvailableBySupplier(ctx, k.typeID, k.sizeID)
		if err != nil {
			return nil, err
		}

		matches := make(map[uuid.UUID]bool)
		for supplierID, available := range counts {
			if available >= quantity {
				matches[supplierID] = true
			}
		}

		if qualified == nil {
			qualified = matches
			continue
		}
		for supplierID := range qualified {
			if !matches[supplierID] {
				delete(qualified, supplierID)
			}
		}
		if len(qualified) == 0 {
			return nil, nil
		}
	}

	result := make([]uuid.UUID, 0, len(qualified))
	for supplierID := range qualified {
		result = append(result, supplierID)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})

	return result, nil
}
