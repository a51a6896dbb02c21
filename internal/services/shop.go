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

// ShopItem is a catalog entry with the classroom's overrides applied.
type ShopItem struct {
	Kind             string    `json:"kind"`
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Cost             int       `json:"cost"`
	LevelRequirement int       `json:"level_requirement"`
	ClassRestriction string    `json:"class_restriction,omitempty"`
}

type ShopService interface {
	ListItems(ctx context.Context, classroomID *uuid.UUID) ([]ShopItem, error)
	Purchase(ctx context.Context, characterID, itemID uuid.UUID, kind string) (*types.ShopPurchase, error)
	SetOverride(ctx context.Context, classroomID uuid.UUID, itemType string, itemID uuid.UUID, cost, levelReq *int, visible bool) error
	ClearOverride(ctx context.Context, classroomID uuid.UUID, itemType string, itemID uuid.UUID) error
}

type shopService struct {
	db               *gorm.DB
	log              *logger.Logger
	equipmentRepo    repos.EquipmentRepo
	abilityRepo      repos.AbilityRepo
	purchaseRepo     repos.ShopPurchaseRepo
	overrideRepo     repos.ShopItemOverrideRepo
	characterRepo    repos.CharacterRepo
	studentRepo      repos.StudentRepo
	inventoryRepo    repos.InventoryRepo
	charAbilityRepo  repos.CharacterAbilityRepo
	inventoryService InventoryService
	abilityService   AbilityService
	auditService     AuditService
}

func NewShopService(
	db *gorm.DB,
	log *logger.Logger,
	equipmentRepo repos.EquipmentRepo,
	abilityRepo repos.AbilityRepo,
	purchaseRepo repos.ShopPurchaseRepo,
	overrideRepo repos.ShopItemOverrideRepo,
	characterRepo repos.CharacterRepo,
	studentRepo repos.StudentRepo,
	inventoryRepo repos.InventoryRepo,
	charAbilityRepo repos.CharacterAbilityRepo,
	inventoryService InventoryService,
	abilityService AbilityService,
	auditService AuditService,
) ShopService {
	return &shopService{
		db:               db,
		log:              log.With("service", "ShopService"),
		equipmentRepo:    equipmentRepo,
		abilityRepo:      abilityRepo,
		purchaseRepo:     purchaseRepo,
		overrideRepo:     overrideRepo,
		characterRepo:    characterRepo,
		studentRepo:      studentRepo,
		inventoryRepo:    inventoryRepo,
		charAbilityRepo:  charAbilityRepo,
		inventoryService: inventoryService,
		abilityService:   abilityService,
		auditService:     auditService,
	}
}

// ListItems returns the visible catalog. With a classroom, per-item
// overrides adjust cost and level requirement and can hide items.
func (s *shopService) ListItems(ctx context.Context, classroomID *uuid.UUID) ([]ShopItem, error) {
	overrides := map[string]*types.ShopItemOverride{}
	if classroomID != nil {
		rows, err := s.overrideRepo.GetByClassroomID(ctx, nil, *classroomID)
		if err != nil {
			return nil, err
		}
		for _, o := range rows {
			overrides[o.ItemType+"/"+o.ItemID.String()] = o
		}
	}

	var items []ShopItem
	equipment, err := s.equipmentRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, e := range equipment {
		item := ShopItem{
			Kind:             types.PurchaseEquipment,
			ID:               e.ID,
			Name:             e.Name,
			Cost:             e.Cost,
			LevelRequirement: e.LevelRequirement,
			ClassRestriction: e.ClassRestriction,
		}
		if visible := applyOverride(&item, overrides[types.PurchaseEquipment+"/"+e.ID.String()]); !visible {
			continue
		}
		items = append(items, item)
	}
	abilities, err := s.abilityRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, a := range abilities {
		item := ShopItem{
			Kind:             types.PurchaseAbility,
			ID:               a.ID,
			Name:             a.Name,
			Cost:             a.Cost,
			LevelRequirement: a.LevelRequirement,
		}
		if visible := applyOverride(&item, overrides[types.PurchaseAbility+"/"+a.ID.String()]); !visible {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func applyOverride(item *ShopItem, o *types.ShopItemOverride) bool {
	if o == nil {
		return true
	}
	if !o.IsVisible {
		return false
	}
	if o.Cost != nil {
		item.Cost = *o.Cost
	}
	if o.LevelRequirement != nil {
		item.LevelRequirement = *o.LevelRequirement
	}
	return true
}

// Purchase validates in a fixed order and commits the debit, the grant,
// the receipt and the audit entry as one transaction.
func (s *shopService) Purchase(ctx context.Context, characterID, itemID uuid.UUID, kind string) (*types.ShopPurchase, error) {
	if kind != types.PurchaseEquipment && kind != types.PurchaseAbility {
		return nil, apperr.Validationf("unknown purchase kind %q", kind)
	}
	var receipt *types.ShopPurchase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := s.characterRepo.GetByID(ctx, tx, characterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("character not found")
			}
			return err
		}

		// 1. Resolve the item.
		cost := 0
		levelReq := 1
		classRestriction := ""
		switch kind {
		case types.PurchaseEquipment:
			e, err := s.equipmentRepo.GetByID(ctx, tx, itemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("equipment not found")
				}
				return err
			}
			cost, levelReq, classRestriction = e.Cost, e.LevelRequirement, e.ClassRestriction
		case types.PurchaseAbility:
			a, err := s.abilityRepo.GetByID(ctx, tx, itemID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFoundf("ability not found")
				}
				return err
			}
			cost, levelReq = a.Cost, a.LevelRequirement
		}

		// 2. Reject duplicates before any money moves.
		owned, err := s.alreadyOwned(ctx, tx, ch.ID, itemID, kind)
		if err != nil {
			return err
		}
		if owned {
			return apperr.Rulef(apperr.CodeAlreadyOwned, "item already owned")
		}

		// 3. Classroom override, tolerating an unmigrated table.
		student, err := s.studentRepo.GetByID(ctx, tx, ch.StudentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if student != nil && student.ClassID != nil {
			o, err := s.overrideRepo.Get(ctx, tx, *student.ClassID, kind, itemID)
			if err != nil {
				return err
			}
			if o != nil {
				if !o.IsVisible {
					return apperr.Rulef(apperr.CodeNotAvailable, "item is not available in this classroom")
				}
				if o.Cost != nil {
					cost = *o.Cost
				}
				if o.LevelRequirement != nil {
					levelReq = *o.LevelRequirement
				}
			}
		}

		// 4. Gold, level and class gates. Receipts carry positive
		// gold_spent, so an item priced at zero is not purchasable.
		if cost <= 0 {
			return apperr.Rulef(apperr.CodeNotAvailable, "item has no purchase price")
		}
		if ch.Gold < cost {
			return apperr.Rulef(apperr.CodeInsufficientGold, "not enough gold")
		}
		if ch.Level < levelReq {
			return apperr.Rulef(apperr.CodeLevelTooLow, "level %d required", levelReq)
		}
		if kind == types.PurchaseEquipment && classRestriction != "" && classRestriction != ch.CharacterClass {
			return apperr.Rulef(apperr.CodeClassRestricted, "restricted to %s", classRestriction)
		}

		// 5. Debit, grant, receipt, audit.
		ch.Gold -= cost
		if err := s.characterRepo.Save(ctx, tx, ch); err != nil {
			return err
		}
		switch kind {
		case types.PurchaseEquipment:
			if _, err := s.inventoryService.GrantTx(ctx, tx, ch.ID, itemID); err != nil {
				return err
			}
		case types.PurchaseAbility:
			if _, err := s.abilityService.LearnTx(ctx, tx, ch.ID, itemID); err != nil {
				return err
			}
		}
		row := &types.ShopPurchase{
			CharacterID:  ch.ID,
			StudentID:    ch.StudentID,
			PurchaseType: kind,
			ItemID:       itemID,
			GoldSpent:    cost,
		}
		if _, err := s.purchaseRepo.Create(ctx, tx, []*types.ShopPurchase{row}); err != nil {
			return err
		}
		if err := s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventPurchase,
			CharacterID: &ch.ID,
			Data: map[string]any{
				"item_id":    itemID.String(),
				"kind":       kind,
				"gold_spent": cost,
			},
		}); err != nil {
			return err
		}
		receipt = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *shopService) alreadyOwned(ctx context.Context, tx *gorm.DB, characterID, itemID uuid.UUID, kind string) (bool, error) {
	var err error
	switch kind {
	case types.PurchaseEquipment:
		_, err = s.inventoryRepo.GetByCharacterAndEquipment(ctx, tx, characterID, itemID)
	case types.PurchaseAbility:
		_, err = s.charAbilityRepo.GetByCharacterAndAbility(ctx, tx, characterID, itemID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *shopService) SetOverride(ctx context.Context, classroomID uuid.UUID, itemType string, itemID uuid.UUID, cost, levelReq *int, visible bool) error {
	if itemType != types.PurchaseEquipment && itemType != types.PurchaseAbility {
		return apperr.Validationf("unknown item type %q", itemType)
	}
	if cost != nil && *cost <= 0 {
		return apperr.Validationf("override cost must be positive")
	}
	if levelReq != nil && *levelReq < 1 {
		return apperr.Validationf("override level requirement must be at least 1")
	}
	return s.overrideRepo.Upsert(ctx, nil, &types.ShopItemOverride{
		ClassroomID:      classroomID,
		ItemType:         itemType,
		ItemID:           itemID,
		Cost:             cost,
		LevelRequirement: levelReq,
		IsVisible:        visible,
	})
}

func (s *shopService) ClearOverride(ctx context.Context, classroomID uuid.UUID, itemType string, itemID uuid.UUID) error {
	return s.overrideRepo.Delete(ctx, nil, classroomID, itemType, itemID)
}
