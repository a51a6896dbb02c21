package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
)

type CreateMonsterInput struct {
	Name       string `json:"name" binding:"required"`
	Level      int    `json:"level"`
	Health     int    `json:"health"`
	Attack     int    `json:"attack"`
	Defense    int    `json:"defense"`
	XPReward   int    `json:"xp_reward"`
	GoldReward int    `json:"gold_reward"`
}

type QuestionInput struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Difficulty    int      `json:"difficulty"`
}

type CreateEquipmentInput struct {
	Name             string `json:"name" binding:"required"`
	Type             string `json:"type"`
	Slot             string `json:"slot"`
	LevelRequirement int    `json:"level_requirement"`
	HealthBonus      int    `json:"health_bonus"`
	StrengthBonus    int    `json:"strength_bonus"`
	DefenseBonus     int    `json:"defense_bonus"`
	Rarity           int    `json:"rarity"`
	Cost             int    `json:"cost"`
	ClassRestriction string `json:"class_restriction"`
}

type CreateAbilityInput struct {
	Name             string `json:"name" binding:"required"`
	Type             string `json:"type"`
	Power            int    `json:"power"`
	CooldownSeconds  int    `json:"cooldown_seconds"`
	DurationSeconds  int    `json:"duration_seconds"`
	Cost             int    `json:"cost"`
	LevelRequirement int    `json:"level_requirement"`
}

// CatalogService manages the teacher-writable catalog tables. Catalog
// rows are immutable once defined; edits are admin-side.
type CatalogService interface {
	CreateMonster(ctx context.Context, input CreateMonsterInput) (*types.Monster, error)
	ListMonsters(ctx context.Context) ([]*types.Monster, error)
	CreateQuestionSet(ctx context.Context, teacherID uuid.UUID, name, subject string, questions []QuestionInput) (*types.QuestionSet, error)
	ListQuestionSets(ctx context.Context, teacherID uuid.UUID) ([]*types.QuestionSet, error)
	CreateEquipment(ctx context.Context, input CreateEquipmentInput) (*types.Equipment, error)
	ListEquipment(ctx context.Context) ([]*types.Equipment, error)
	CreateAbility(ctx context.Context, input CreateAbilityInput) (*types.Ability, error)
	ListAbilities(ctx context.Context) ([]*types.Ability, error)
}

type catalogService struct {
	db              *gorm.DB
	log             *logger.Logger
	monsterRepo     repos.MonsterRepo
	questionSetRepo repos.QuestionSetRepo
	questionRepo    repos.QuestionRepo
	equipmentRepo   repos.EquipmentRepo
	abilityRepo     repos.AbilityRepo
}

func NewCatalogService(
	db *gorm.DB,
	log *logger.Logger,
	monsterRepo repos.MonsterRepo,
	questionSetRepo repos.QuestionSetRepo,
	questionRepo repos.QuestionRepo,
	equipmentRepo repos.EquipmentRepo,
	abilityRepo repos.AbilityRepo,
) CatalogService {
	return &catalogService{
		db:              db,
		log:             log.With("service", "CatalogService"),
		monsterRepo:     monsterRepo,
		questionSetRepo: questionSetRepo,
		questionRepo:    questionRepo,
		equipmentRepo:   equipmentRepo,
		abilityRepo:     abilityRepo,
	}
}

func (s *catalogService) CreateMonster(ctx context.Context, input CreateMonsterInput) (*types.Monster, error) {
	if input.Name == "" {
		return nil, apperr.Validationf("monster name is required")
	}
	if input.Health <= 0 || input.Attack < 0 {
		return nil, apperr.Validationf("monster health must be positive and attack non-negative")
	}
	if input.Level < 1 {
		input.Level = 1
	}
	m := &types.Monster{
		Name:       input.Name,
		Level:      input.Level,
		Health:     input.Health,
		Attack:     input.Attack,
		Defense:    input.Defense,
		XPReward:   input.XPReward,
		GoldReward: input.GoldReward,
	}
	if _, err := s.monsterRepo.Create(ctx, nil, []*types.Monster{m}); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *catalogService) ListMonsters(ctx context.Context) ([]*types.Monster, error) {
	return s.monsterRepo.GetAll(ctx, nil)
}

func (s *catalogService) CreateQuestionSet(ctx context.Context, teacherID uuid.UUID, name, subject string, questions []QuestionInput) (*types.QuestionSet, error) {
	if name == "" {
		return nil, apperr.Validationf("question set name is required")
	}
	if len(questions) == 0 {
		return nil, apperr.Validationf("a question set needs at least one question")
	}
	var created *types.QuestionSet
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		set := &types.QuestionSet{TeacherID: teacherID, Name: name, Subject: subject}
		if _, err := s.questionSetRepo.Create(ctx, tx, []*types.QuestionSet{set}); err != nil {
			return err
		}
		rows := make([]*types.Question, 0, len(questions))
		for _, q := range questions {
			if q.Text == "" || q.CorrectAnswer == "" {
				return apperr.Validationf("questions need text and a correct answer")
			}
			difficulty := q.Difficulty
			if difficulty < 1 {
				difficulty = 1
			}
			if difficulty > 5 {
				difficulty = 5
			}
			row := &types.Question{
				QuestionSetID: set.ID,
				Text:          q.Text,
				CorrectAnswer: q.CorrectAnswer,
				Difficulty:    difficulty,
			}
			if len(q.Options) > 0 {
				raw, err := marshalJSON(q.Options)
				if err != nil {
					return err
				}
				row.Options = raw
			}
			rows = append(rows, row)
		}
		if _, err := s.questionRepo.Create(ctx, tx, rows); err != nil {
			return err
		}
		created = set
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.questionSetRepo.GetByID(ctx, nil, created.ID)
}

func (s *catalogService) ListQuestionSets(ctx context.Context, teacherID uuid.UUID) ([]*types.QuestionSet, error) {
	return s.questionSetRepo.GetByTeacherID(ctx, nil, teacherID)
}

func (s *catalogService) CreateEquipment(ctx context.Context, input CreateEquipmentInput) (*types.Equipment, error) {
	if input.Name == "" || input.Type == "" || input.Slot == "" {
		return nil, apperr.Validationf("equipment name, type and slot are required")
	}
	if input.Rarity < 1 {
		input.Rarity = 1
	}
	if input.Rarity > 5 {
		input.Rarity = 5
	}
	if input.LevelRequirement < 1 {
		input.LevelRequirement = 1
	}
	e := &types.Equipment{
		Name:             input.Name,
		Type:             input.Type,
		Slot:             input.Slot,
		LevelRequirement: input.LevelRequirement,
		HealthBonus:      input.HealthBonus,
		StrengthBonus:    input.StrengthBonus,
		DefenseBonus:     input.DefenseBonus,
		Rarity:           input.Rarity,
		Cost:             input.Cost,
		ClassRestriction: input.ClassRestriction,
	}
	if _, err := s.equipmentRepo.Create(ctx, nil, []*types.Equipment{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *catalogService) ListEquipment(ctx context.Context) ([]*types.Equipment, error) {
	return s.equipmentRepo.GetAll(ctx, nil)
}

func (s *catalogService) CreateAbility(ctx context.Context, input CreateAbilityInput) (*types.Ability, error) {
	if input.Name == "" {
		return nil, apperr.Validationf("ability name is required")
	}
	if !types.ValidAbilityType(input.Type) {
		return nil, apperr.Validationf("unknown ability type %q", input.Type)
	}
	if input.LevelRequirement < 1 {
		input.LevelRequirement = 1
	}
	a := &types.Ability{
		Name:             input.Name,
		Type:             input.Type,
		Power:            input.Power,
		CooldownSeconds:  input.CooldownSeconds,
		DurationSeconds:  input.DurationSeconds,
		Cost:             input.Cost,
		LevelRequirement: input.LevelRequirement,
	}
	if _, err := s.abilityRepo.Create(ctx, nil, []*types.Ability{a}); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *catalogService) ListAbilities(ctx context.Context) ([]*types.Ability, error) {
	return s.abilityRepo.GetAll(ctx, nil)
}

func marshalJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

