package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
)

type InventoryService interface {
	List(ctx context.Context, characterID uuid.UUID) ([]*types.Inventory, error)
	Grant(ctx context.Context, characterID, equipmentID uuid.UUID) (*types.Inventory, error)
	Equip(ctx context.Context, characterID, inventoryID uuid.UUID) error
	Unequip(ctx context.Context, characterID, inventoryID uuid.UUID) error
	RemoveEquipment(ctx context.Context, equipmentID uuid.UUID) error

	// GrantTx creates an unequipped ownership row inside the caller's
	// transaction. Used by quest rewards and shop purchases.
	GrantTx(ctx context.Context, tx *gorm.DB, characterID, equipmentID uuid.UUID) (*types.Inventory, error)
}

type inventoryService struct {
	db            *gorm.DB
	log           *logger.Logger
	inventoryRepo repos.InventoryRepo
	equipmentRepo repos.EquipmentRepo
	characterRepo repos.CharacterRepo
}

func NewInventoryService(
	db *gorm.DB,
	log *logger.Logger,
	inventoryRepo repos.InventoryRepo,
	equipmentRepo repos.EquipmentRepo,
	characterRepo repos.CharacterRepo,
) InventoryService {
	return &inventoryService{
		db:            db,
		log:           log.With("service", "InventoryService"),
		inventoryRepo: inventoryRepo,
		equipmentRepo: equipmentRepo,
		characterRepo: characterRepo,
	}
}

func (s *inventoryService) List(ctx context.Context, characterID uuid.UUID) ([]*types.Inventory, error) {
	return s.inventoryRepo.GetByCharacterID(ctx, nil, characterID)
}

func (s *inventoryService) Grant(ctx context.Context, characterID, equipmentID uuid.UUID) (*types.Inventory, error) {
	var row *types.Inventory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.GrantTx(ctx, tx, characterID, equipmentID)
		if err != nil {
			return err
		}
		row = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *inventoryService) GrantTx(ctx context.Context, tx *gorm.DB, characterID, equipmentID uuid.UUID) (*types.Inventory, error) {
	if _, err := s.characterRepo.GetByID(ctx, tx, characterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("character not found")
		}
		return nil, err
	}
	if _, err := s.equipmentRepo.GetByID(ctx, tx, equipmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("equipment not found")
		}
		return nil, err
	}
	if existing, err := s.inventoryRepo.GetByCharacterAndEquipment(ctx, tx, characterID, equipmentID); err == nil && existing != nil {
		return nil, apperr.Rulef(apperr.CodeAlreadyOwned, "item already owned")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	count, err := s.inventoryRepo.CountByCharacterID(ctx, tx, characterID)
	if err != nil {
		return nil, err
	}
	if count >= types.MaxInventorySize {
		return nil, apperr.Rulef(apperr.CodeInventoryFull, "inventory is full")
	}
	row := &types.Inventory{
		CharacterID: characterID,
		EquipmentID: equipmentID,
		IsEquipped:  false,
	}
	if _, err := s.inventoryRepo.Create(ctx, tx, []*types.Inventory{row}); err != nil {
		return nil, err
	}
	return row, nil
}

// Equip marks the row equipped, first clearing any other row the character
// has equipped in the same slot. Exactly one transition per slot.
func (s *inventoryService) Equip(ctx context.Context, characterID, inventoryID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.inventoryRepo.GetByID(ctx, tx, inventoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("inventory item not found")
			}
			return err
		}
		if row.CharacterID != characterID {
			return apperr.Permissionf("item is not yours")
		}
		if row.IsEquipped {
			return nil
		}
		if row.Equipment == nil {
			return apperr.NotFoundf("equipment not found")
		}
		equipped, err := s.inventoryRepo.GetEquippedByCharacterID(ctx, tx, characterID)
		if err != nil {
			return err
		}
		for _, other := range equipped {
			if other.Equipment != nil && other.Equipment.Slot == row.Equipment.Slot {
				if err := s.inventoryRepo.SetEquipped(ctx, tx, other.ID, false); err != nil {
					return err
				}
			}
		}
		return s.inventoryRepo.SetEquipped(ctx, tx, row.ID, true)
	})
}

// Unequip is idempotent.
func (s *inventoryService) Unequip(ctx context.Context, characterID, inventoryID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.inventoryRepo.GetByID(ctx, tx, inventoryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("inventory item not found")
			}
			return err
		}
		if row.CharacterID != characterID {
			return apperr.Permissionf("item is not yours")
		}
		if !row.IsEquipped {
			return nil
		}
		return s.inventoryRepo.SetEquipped(ctx, tx, row.ID, false)
	})
}

// RemoveEquipment deletes a catalog row and cascades to every inventory
// row that references it.
func (s *inventoryService) RemoveEquipment(ctx context.Context, equipmentID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.equipmentRepo.GetByID(ctx, tx, equipmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("equipment not found")
			}
			return err
		}
		if err := s.inventoryRepo.DeleteByEquipmentID(ctx, tx, equipmentID); err != nil {
			return err
		}
		return s.equipmentRepo.Delete(ctx, tx, equipmentID)
	})
}
