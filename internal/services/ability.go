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

// UseResult reports what an ability use did.
type UseResult struct {
	AbilityName  string `json:"ability_name"`
	EffectType   string `json:"effect_type"`
	HealAmount   int    `json:"heal_amount,omitempty"`
	Damage       int    `json:"damage,omitempty"`
	TargetDied   bool   `json:"target_died,omitempty"`
	CasterXPGain int    `json:"caster_xp_gain,omitempty"`
}

type AbilityService interface {
	Learn(ctx context.Context, characterID, abilityID uuid.UUID) (*types.CharacterAbility, error)
	EquipAbility(ctx context.Context, characterID, abilityID uuid.UUID) error
	UnequipAbility(ctx context.Context, characterID, abilityID uuid.UUID) error
	LevelUpAbility(ctx context.Context, characterID, abilityID uuid.UUID) error
	Use(ctx context.Context, casterID, abilityID, targetID uuid.UUID) (*UseResult, error)
	ListForCharacter(ctx context.Context, characterID uuid.UUID) ([]*types.CharacterAbility, error)

	LearnTx(ctx context.Context, tx *gorm.DB, characterID, abilityID uuid.UUID) (*types.CharacterAbility, error)
}

type abilityService struct {
	db               *gorm.DB
	log              *logger.Logger
	abilityRepo      repos.AbilityRepo
	charAbilityRepo  repos.CharacterAbilityRepo
	characterRepo    repos.CharacterRepo
	statusEffectRepo repos.StatusEffectRepo
	characterService CharacterService
	auditService     AuditService
}

func NewAbilityService(
	db *gorm.DB,
	log *logger.Logger,
	abilityRepo repos.AbilityRepo,
	charAbilityRepo repos.CharacterAbilityRepo,
	characterRepo repos.CharacterRepo,
	statusEffectRepo repos.StatusEffectRepo,
	characterService CharacterService,
	auditService AuditService,
) AbilityService {
	return &abilityService{
		db:               db,
		log:              log.With("service", "AbilityService"),
		abilityRepo:      abilityRepo,
		charAbilityRepo:  charAbilityRepo,
		characterRepo:    characterRepo,
		statusEffectRepo: statusEffectRepo,
		characterService: characterService,
		auditService:     auditService,
	}
}

func (s *abilityService) ListForCharacter(ctx context.Context, characterID uuid.UUID) ([]*types.CharacterAbility, error) {
	return s.charAbilityRepo.GetByCharacterID(ctx, nil, characterID)
}

func (s *abilityService) Learn(ctx context.Context, characterID, abilityID uuid.UUID) (*types.CharacterAbility, error) {
	var row *types.CharacterAbility
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.LearnTx(ctx, tx, characterID, abilityID)
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

func (s *abilityService) LearnTx(ctx context.Context, tx *gorm.DB, characterID, abilityID uuid.UUID) (*types.CharacterAbility, error) {
	if _, err := s.characterRepo.GetByID(ctx, tx, characterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("character not found")
		}
		return nil, err
	}
	if _, err := s.abilityRepo.GetByID(ctx, tx, abilityID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("ability not found")
		}
		return nil, err
	}
	if existing, err := s.charAbilityRepo.GetByCharacterAndAbility(ctx, tx, characterID, abilityID); err == nil && existing != nil {
		return nil, apperr.Rulef(apperr.CodeAlreadyOwned, "ability already learned")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	row := &types.CharacterAbility{
		CharacterID: characterID,
		AbilityID:   abilityID,
		Level:       1,
	}
	if _, err := s.charAbilityRepo.Create(ctx, tx, []*types.CharacterAbility{row}); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *abilityService) EquipAbility(ctx context.Context, characterID, abilityID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.ownedAbility(ctx, tx, characterID, abilityID)
		if err != nil {
			return err
		}
		if row.IsEquipped {
			return nil
		}
		equipped, err := s.charAbilityRepo.CountEquipped(ctx, tx, characterID)
		if err != nil {
			return err
		}
		if equipped >= types.MaxEquippedAbilities {
			return apperr.Rulef(apperr.CodeAbilityCapReached, "cannot equip more than %d abilities", types.MaxEquippedAbilities)
		}
		return s.charAbilityRepo.SetEquipped(ctx, tx, row.ID, true)
	})
}

func (s *abilityService) UnequipAbility(ctx context.Context, characterID, abilityID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.ownedAbility(ctx, tx, characterID, abilityID)
		if err != nil {
			return err
		}
		if !row.IsEquipped {
			return nil
		}
		return s.charAbilityRepo.SetEquipped(ctx, tx, row.ID, false)
	})
}

func (s *abilityService) LevelUpAbility(ctx context.Context, characterID, abilityID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.ownedAbility(ctx, tx, characterID, abilityID)
		if err != nil {
			return err
		}
		return s.charAbilityRepo.UpdateLevel(ctx, tx, row.ID, row.Level+1)
	})
}

// Use applies an ability to a target. Pre-conditions are checked in a
// fixed order: ownership and equipped state, target existence, cooldown,
// then ability-specific target rules.
func (s *abilityService) Use(ctx context.Context, casterID, abilityID, targetID uuid.UUID) (*UseResult, error) {
	var result *UseResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := s.ownedAbility(ctx, tx, casterID, abilityID)
		if err != nil {
			return err
		}
		if !owned.IsEquipped {
			return apperr.Validationf("ability is not equipped")
		}
		ability := owned.Ability
		if ability == nil {
			return apperr.NotFoundf("ability not found")
		}
		if !types.ValidAbilityType(ability.Type) {
			return apperr.Validationf("unknown ability type %q", ability.Type)
		}

		caster, err := s.characterRepo.GetByID(ctx, tx, casterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("character not found")
			}
			return err
		}
		target, err := s.characterRepo.GetByID(ctx, tx, targetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("target not found")
			}
			return err
		}

		now := time.Now().UTC()
		if owned.LastUsedAt != nil && ability.CooldownSeconds > 0 {
			elapsed := now.Sub(*owned.LastUsedAt)
			cooldown := time.Duration(ability.CooldownSeconds) * time.Second
			if elapsed < cooldown {
				remaining := int((cooldown - elapsed).Round(time.Second).Seconds())
				return apperr.Rulef(apperr.CodeCooldownActive, "ability on cooldown for %ds", remaining)
			}
		}

		r := &UseResult{AbilityName: ability.Name, EffectType: ability.Type}
		switch ability.Type {
		case types.AbilityHeal:
			if target.Health >= target.MaxHealth {
				return apperr.Rulef(apperr.CodeAtFullHealth, "target is at full health")
			}
			amount := ability.Power
			if missing := target.MaxHealth - target.Health; amount > missing {
				amount = missing
			}
			if err := s.characterService.Heal(ctx, tx, target, amount); err != nil {
				return err
			}
			r.HealAmount = amount
			if target.ID != caster.ID {
				assistXP := amount / 2
				if assistXP > 0 {
					if err := s.characterService.GainExperience(ctx, tx, caster, assistXP); err != nil {
						return err
					}
					r.CasterXPGain = assistXP
				}
			}
		case types.AbilityAttack:
			damage := ability.Power - target.Defense/2
			if damage < 1 {
				damage = 1
			}
			alive, err := s.characterService.TakeDamage(ctx, tx, target, damage)
			if err != nil {
				return err
			}
			r.Damage = damage
			if !alive {
				r.TargetDied = true
				if err := s.characterService.GainExperience(ctx, tx, caster, damage); err != nil {
					return err
				}
				r.CasterXPGain = damage
			}
		case types.AbilityBuff, types.AbilityDebuff, types.AbilityDefense:
			if err := s.applyTimedEffect(ctx, tx, ability, target, now); err != nil {
				return err
			}
		case types.AbilityUtility:
			// No state change; the audit entry below is the record.
		}

		if err := s.charAbilityRepo.SetLastUsed(ctx, tx, owned.ID, now); err != nil {
			return err
		}
		if err := s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventAbilityUsed,
			CharacterID: &casterID,
			Data: map[string]any{
				"ability":   ability.Name,
				"type":      ability.Type,
				"target_id": targetID.String(),
			},
		}); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyTimedEffect purges the target's expired effects and stacks a new
// one. Protect-style abilities raise defense; debuffs subtract power from
// strength; plain buffs add to strength.
func (s *abilityService) applyTimedEffect(ctx context.Context, tx *gorm.DB, ability *types.Ability, target *types.Character, now time.Time) error {
	if err := s.statusEffectRepo.PurgeExpired(ctx, tx, target.ID, now); err != nil {
		return err
	}
	amount := ability.Power
	stat := types.StatStrength
	effectType := types.EffectBuff
	switch ability.Type {
	case types.AbilityDefense:
		stat = types.StatDefense
		effectType = types.EffectProtect
	case types.AbilityDebuff:
		amount = -ability.Power
		effectType = types.EffectDebuff
	}
	effect := &types.StatusEffect{
		CharacterID:  target.ID,
		EffectType:   effectType,
		StatAffected: stat,
		Amount:       amount,
		ExpiresAt:    now.Add(time.Duration(ability.DurationSeconds) * time.Second),
		Source:       ability.Name,
	}
	if _, err := s.statusEffectRepo.Create(ctx, tx, []*types.StatusEffect{effect}); err != nil {
		return err
	}
	return s.auditService.Record(ctx, tx, AuditEntry{
		EventType:   types.EventEffectApplied,
		CharacterID: &target.ID,
		Data: map[string]any{
			"effect_type":   effectType,
			"stat_affected": stat,
			"amount":        amount,
			"source":        ability.Name,
		},
	})
}

func (s *abilityService) ownedAbility(ctx context.Context, tx *gorm.DB, characterID, abilityID uuid.UUID) (*types.CharacterAbility, error) {
	row, err := s.charAbilityRepo.GetByCharacterAndAbility(ctx, tx, characterID, abilityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Validationf("ability is not owned")
		}
		return nil, err
	}
	return row, nil
}
