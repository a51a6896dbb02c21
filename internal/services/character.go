package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
)

// TotalStats is a character's base stats plus equipped item bonuses plus
// active status effect amounts.
type TotalStats struct {
	Health   int `json:"health"`
	Strength int `json:"strength"`
	Defense  int `json:"defense"`
}

type CharacterService interface {
	Create(ctx context.Context, studentID uuid.UUID, name, characterClass string) (*types.Character, error)
	Get(ctx context.Context, characterID uuid.UUID) (*types.Character, error)
	GetActiveForStudent(ctx context.Context, studentID uuid.UUID) (*types.Character, error)
	Totals(ctx context.Context, characterID uuid.UUID) (*TotalStats, error)
	JoinClan(ctx context.Context, characterID, clanID uuid.UUID) error
	LeaveClan(ctx context.Context, characterID uuid.UUID) error

	// Transaction-scoped mutators shared with the quest, battle, shop
	// and ability engines.
	GainExperience(ctx context.Context, tx *gorm.DB, character *types.Character, amount int) error
	TakeDamage(ctx context.Context, tx *gorm.DB, character *types.Character, amount int) (bool, error)
	Heal(ctx context.Context, tx *gorm.DB, character *types.Character, amount int) error
	TotalsTx(ctx context.Context, tx *gorm.DB, character *types.Character) (*TotalStats, error)
}

type characterService struct {
	db               *gorm.DB
	log              *logger.Logger
	characterRepo    repos.CharacterRepo
	studentRepo      repos.StudentRepo
	classroomRepo    repos.ClassroomRepo
	clanRepo         repos.ClanRepo
	inventoryRepo    repos.InventoryRepo
	statusEffectRepo repos.StatusEffectRepo
	auditService     AuditService
}

func NewCharacterService(
	db *gorm.DB,
	log *logger.Logger,
	characterRepo repos.CharacterRepo,
	studentRepo repos.StudentRepo,
	classroomRepo repos.ClassroomRepo,
	clanRepo repos.ClanRepo,
	inventoryRepo repos.InventoryRepo,
	statusEffectRepo repos.StatusEffectRepo,
	auditService AuditService,
) CharacterService {
	return &characterService{
		db:               db,
		log:              log.With("service", "CharacterService"),
		characterRepo:    characterRepo,
		studentRepo:      studentRepo,
		classroomRepo:    classroomRepo,
		clanRepo:         clanRepo,
		inventoryRepo:    inventoryRepo,
		statusEffectRepo: statusEffectRepo,
		auditService:     auditService,
	}
}

// startingStats returns the class presets applied at character creation.
func startingStats(characterClass string) (health, strength, defense int, ok bool) {
	switch characterClass {
	case types.ClassWarrior:
		return 120, 14, 12, true
	case types.ClassSorcerer:
		return 90, 16, 8, true
	case types.ClassDruid:
		return 100, 12, 10, true
	}
	return 0, 0, 0, false
}

func (s *characterService) Create(ctx context.Context, studentID uuid.UUID, name, characterClass string) (*types.Character, error) {
	if name == "" {
		return nil, apperr.Validationf("character name is required")
	}
	health, strength, defense, ok := startingStats(characterClass)
	if !ok {
		return nil, apperr.Validationf("unknown character class %q", characterClass)
	}

	var created *types.Character
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.studentRepo.GetByID(ctx, tx, studentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("student not found")
			}
			return err
		}
		if existing, err := s.characterRepo.GetActiveByStudentID(ctx, tx, studentID); err == nil && existing != nil {
			return apperr.Conflictf("student already has an active character")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		ch := &types.Character{
			StudentID:      studentID,
			Name:           name,
			Level:          1,
			Experience:     0,
			Health:         health,
			MaxHealth:      health,
			Strength:       strength,
			Defense:        defense,
			Gold:           0,
			CharacterClass: characterClass,
			IsActive:       true,
		}
		if _, err := s.characterRepo.Create(ctx, tx, []*types.Character{ch}); err != nil {
			return err
		}
		created = ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *characterService) Get(ctx context.Context, characterID uuid.UUID) (*types.Character, error) {
	ch, err := s.characterRepo.GetByID(ctx, nil, characterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("character not found")
		}
		return nil, err
	}
	return ch, nil
}

func (s *characterService) GetActiveForStudent(ctx context.Context, studentID uuid.UUID) (*types.Character, error) {
	ch, err := s.characterRepo.GetActiveByStudentID(ctx, nil, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("character not found")
		}
		return nil, err
	}
	return ch, nil
}

// GainExperience adds experience, applies the leveling rule and saves the
// character. A multi-level grant applies stat gains per level gained but
// heals to full only once.
func (s *characterService) GainExperience(ctx context.Context, tx *gorm.DB, character *types.Character, amount int) error {
	if amount < 0 {
		return apperr.Validationf("experience amount must be non-negative")
	}
	if amount == 0 {
		return nil
	}
	character.Experience += amount
	newLevel := types.LevelForExperience(character.Experience)
	levelsGained := newLevel - character.Level
	if levelsGained > 0 {
		character.Level = newLevel
		character.MaxHealth += 10 * levelsGained
		character.Strength += 2 * levelsGained
		character.Defense += 2 * levelsGained
		character.Health = character.MaxHealth
	}
	if err := s.characterRepo.Save(ctx, tx, character); err != nil {
		return err
	}
	if err := s.auditService.Record(ctx, tx, AuditEntry{
		EventType:   types.EventXPGain,
		CharacterID: &character.ID,
		Data:        map[string]any{"amount": amount},
	}); err != nil {
		return err
	}
	if levelsGained > 0 {
		return s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventLevelUp,
			CharacterID: &character.ID,
			Data:        map[string]any{"level": character.Level, "levels_gained": levelsGained},
		})
	}
	return nil
}

// TakeDamage lowers health (floored at zero) and reports whether the
// character is still alive.
func (s *characterService) TakeDamage(ctx context.Context, tx *gorm.DB, character *types.Character, amount int) (bool, error) {
	if amount < 0 {
		return character.Health > 0, apperr.Validationf("damage amount must be non-negative")
	}
	character.Health -= amount
	if character.Health < 0 {
		character.Health = 0
	}
	if err := s.characterRepo.Save(ctx, tx, character); err != nil {
		return false, err
	}
	if err := s.auditService.Record(ctx, tx, AuditEntry{
		EventType:   types.EventDamage,
		CharacterID: &character.ID,
		Data:        map[string]any{"amount": amount, "health": character.Health},
	}); err != nil {
		return false, err
	}
	return character.Health > 0, nil
}

func (s *characterService) Heal(ctx context.Context, tx *gorm.DB, character *types.Character, amount int) error {
	if amount < 0 {
		return apperr.Validationf("heal amount must be non-negative")
	}
	character.Health += amount
	if character.Health > character.MaxHealth {
		character.Health = character.MaxHealth
	}
	if err := s.characterRepo.Save(ctx, tx, character); err != nil {
		return err
	}
	return s.auditService.Record(ctx, tx, AuditEntry{
		EventType:   types.EventHeal,
		CharacterID: &character.ID,
		Data:        map[string]any{"amount": amount, "health": character.Health},
	})
}

func (s *characterService) Totals(ctx context.Context, characterID uuid.UUID) (*TotalStats, error) {
	ch, err := s.Get(ctx, characterID)
	if err != nil {
		return nil, err
	}
	return s.TotalsTx(ctx, nil, ch)
}

// TotalsTx aggregates base stats, equipped item bonuses and active status
// effects. Expired effects are excluded; negative amounts model debuffs.
func (s *characterService) TotalsTx(ctx context.Context, tx *gorm.DB, character *types.Character) (*TotalStats, error) {
	totals := &TotalStats{
		Health:   character.MaxHealth,
		Strength: character.Strength,
		Defense:  character.Defense,
	}
	equipped, err := s.inventoryRepo.GetEquippedByCharacterID(ctx, tx, character.ID)
	if err != nil {
		return nil, err
	}
	for _, row := range equipped {
		if row.Equipment == nil {
			continue
		}
		totals.Health += row.Equipment.HealthBonus
		totals.Strength += row.Equipment.StrengthBonus
		totals.Defense += row.Equipment.DefenseBonus
	}
	effects, err := s.statusEffectRepo.GetActiveByCharacterID(ctx, tx, character.ID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	for _, effect := range effects {
		switch effect.StatAffected {
		case types.StatHealth:
			totals.Health += effect.Amount
		case types.StatStrength:
			totals.Strength += effect.Amount
		case types.StatDefense:
			totals.Defense += effect.Amount
		}
	}
	return totals, nil
}

func (s *characterService) JoinClan(ctx context.Context, characterID, clanID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := s.characterRepo.GetByID(ctx, tx, characterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("character not found")
			}
			return err
		}
		if ch.ClanID != nil {
			return apperr.Rulef(apperr.CodeAlreadyInClan, "character is already in a clan")
		}
		cl, err := s.clanRepo.GetByID(ctx, tx, clanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("clan not found")
			}
			return err
		}
		classroom, err := s.classroomRepo.GetByID(ctx, tx, cl.ClassroomID)
		if err != nil {
			return err
		}
		if classroom.MaxClanSize != nil {
			members, err := s.characterRepo.CountByClanID(ctx, tx, clanID)
			if err != nil {
				return err
			}
			if members >= int64(*classroom.MaxClanSize) {
				return apperr.Rulef(apperr.CodeClanFull, "clan is full")
			}
		}
		if err := s.characterRepo.UpdateClan(ctx, tx, characterID, &clanID); err != nil {
			return err
		}
		if student, err := s.studentRepo.GetByID(ctx, tx, ch.StudentID); err == nil {
			if err := s.studentRepo.UpdateClan(ctx, tx, student.ID, &clanID); err != nil {
				return err
			}
		}
		return s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventClanJoined,
			CharacterID: &characterID,
			Data:        map[string]any{"clan_id": clanID.String()},
		})
	})
}

func (s *characterService) LeaveClan(ctx context.Context, characterID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ch, err := s.characterRepo.GetByID(ctx, tx, characterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("character not found")
			}
			return err
		}
		if ch.ClanID == nil {
			return nil
		}
		previous := *ch.ClanID
		// A departing leader vacates the leader slot.
		if cl, err := s.clanRepo.GetByID(ctx, tx, previous); err == nil {
			if cl.LeaderID != nil && *cl.LeaderID == characterID {
				if err := s.clanRepo.UpdateLeader(ctx, tx, cl.ID, nil); err != nil {
					return err
				}
			}
		}
		if err := s.characterRepo.UpdateClan(ctx, tx, characterID, nil); err != nil {
			return err
		}
		if student, err := s.studentRepo.GetByID(ctx, tx, ch.StudentID); err == nil {
			if err := s.studentRepo.UpdateClan(ctx, tx, student.ID, nil); err != nil {
				return err
			}
		}
		return s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventClanLeft,
			CharacterID: &characterID,
			Data:        map[string]any{"clan_id": previous.String()},
		})
	})
}
