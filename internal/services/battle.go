package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
)

// TurnResult reports the outcome of one battle turn.
type TurnResult struct {
	Correct         bool   `json:"correct"`
	DamageToMonster int    `json:"damage_to_monster"`
	DamageToPlayer  int    `json:"damage_to_player"`
	PlayerHealth    int    `json:"player_health"`
	MonsterHealth   int    `json:"monster_health"`
	Status          string `json:"status"`
	XPAwarded       int    `json:"xp_awarded,omitempty"`
	GoldAwarded     int    `json:"gold_awarded,omitempty"`
}

type BattleService interface {
	Start(ctx context.Context, studentID, monsterID, questionSetID uuid.UUID) (*types.Battle, error)
	Get(ctx context.Context, battleID uuid.UUID) (*types.Battle, error)
	ActiveForStudent(ctx context.Context, studentID uuid.UUID) (*types.Battle, error)
	DrawQuestion(ctx context.Context, battleID uuid.UUID) (*types.Question, error)
	Attack(ctx context.Context, battleID, questionID uuid.UUID, answer string) (*TurnResult, error)
	Flee(ctx context.Context, battleID uuid.UUID) error
}

type battleService struct {
	db               *gorm.DB
	log              *logger.Logger
	battleRepo       repos.BattleRepo
	monsterRepo      repos.MonsterRepo
	questionSetRepo  repos.QuestionSetRepo
	questionRepo     repos.QuestionRepo
	characterRepo    repos.CharacterRepo
	characterService CharacterService
	auditService     AuditService
}

func NewBattleService(
	db *gorm.DB,
	log *logger.Logger,
	battleRepo repos.BattleRepo,
	monsterRepo repos.MonsterRepo,
	questionSetRepo repos.QuestionSetRepo,
	questionRepo repos.QuestionRepo,
	characterRepo repos.CharacterRepo,
	characterService CharacterService,
	auditService AuditService,
) BattleService {
	return &battleService{
		db:               db,
		log:              log.With("service", "BattleService"),
		battleRepo:       battleRepo,
		monsterRepo:      monsterRepo,
		questionSetRepo:  questionSetRepo,
		questionRepo:     questionRepo,
		characterRepo:    characterRepo,
		characterService: characterService,
		auditService:     auditService,
	}
}

// Start snapshots the character's and monster's health into a new active
// battle. A student can have at most one active battle.
func (s *battleService) Start(ctx context.Context, studentID, monsterID, questionSetID uuid.UUID) (*types.Battle, error) {
	var battle *types.Battle
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if existing, err := s.battleRepo.GetActiveByStudentID(ctx, tx, studentID); err == nil && existing != nil {
			return apperr.Conflictf("a battle is already in progress")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		ch, err := s.characterRepo.GetActiveByStudentID(ctx, tx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("character not found")
			}
			return err
		}
		monster, err := s.monsterRepo.GetByID(ctx, tx, monsterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("monster not found")
			}
			return err
		}
		set, err := s.questionSetRepo.GetByID(ctx, tx, questionSetID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("question set not found")
			}
			return err
		}
		if len(set.Questions) == 0 {
			return apperr.Validationf("question set has no questions")
		}
		b := &types.Battle{
			StudentID:        studentID,
			CharacterID:      ch.ID,
			MonsterID:        monster.ID,
			QuestionSetID:    set.ID,
			PlayerHealth:     ch.Health,
			PlayerMaxHealth:  ch.MaxHealth,
			MonsterHealth:    monster.Health,
			MonsterMaxHealth: monster.Health,
			Status:           types.BattleStatusActive,
			TurnLog:          datatypes.JSON([]byte("[]")),
		}
		if _, err := s.battleRepo.Create(ctx, tx, []*types.Battle{b}); err != nil {
			return err
		}
		if err := s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventBattleStarted,
			CharacterID: &ch.ID,
			Data:        map[string]any{"monster": monster.Name, "battle_id": b.ID.String()},
		}); err != nil {
			return err
		}
		battle = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return battle, nil
}

func (s *battleService) Get(ctx context.Context, battleID uuid.UUID) (*types.Battle, error) {
	b, err := s.battleRepo.GetByID(ctx, nil, battleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("battle not found")
		}
		return nil, err
	}
	return b, nil
}

func (s *battleService) ActiveForStudent(ctx context.Context, studentID uuid.UUID) (*types.Battle, error) {
	b, err := s.battleRepo.GetActiveByStudentID(ctx, nil, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("no active battle")
		}
		return nil, err
	}
	return b, nil
}

// DrawQuestion picks a uniformly random question from the battle's set
// and pins it as the question the next attack must answer.
func (s *battleService) DrawQuestion(ctx context.Context, battleID uuid.UUID) (*types.Question, error) {
	var question *types.Question
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.battleRepo.GetByID(ctx, tx, battleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("battle not found")
			}
			return err
		}
		if b.Status != types.BattleStatusActive {
			return apperr.Rulef(apperr.CodeBattleNotActive, "battle is not active")
		}
		questions, err := s.questionRepo.GetBySetID(ctx, tx, b.QuestionSetID)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return apperr.Validationf("question set has no questions")
		}
		q := questions[rand.Intn(len(questions))]
		b.CurrentQuestionID = &q.ID
		if err := s.battleRepo.Save(ctx, tx, b); err != nil {
			return err
		}
		question = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

// Attack resolves one turn. A correct answer damages the monster by
// strength + 5 per difficulty point; an incorrect answer damages the
// player by the monster's attack. Victory awards the monster's XP and
// gold to the character.
func (s *battleService) Attack(ctx context.Context, battleID, questionID uuid.UUID, answer string) (*TurnResult, error) {
	var result *TurnResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.battleRepo.GetByID(ctx, tx, battleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("battle not found")
			}
			return err
		}
		if b.Status != types.BattleStatusActive {
			return apperr.Rulef(apperr.CodeBattleNotActive, "battle is not active")
		}
		question, err := s.questionRepo.GetByID(ctx, tx, questionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("question not found")
			}
			return err
		}
		if question.QuestionSetID != b.QuestionSetID {
			return apperr.Validationf("question does not belong to this battle")
		}
		if b.CurrentQuestionID == nil || *b.CurrentQuestionID != question.ID {
			return apperr.Validationf("question was not drawn for this turn")
		}
		ch, err := s.characterRepo.GetByID(ctx, tx, b.CharacterID)
		if err != nil {
			return err
		}
		monster, err := s.monsterRepo.GetByID(ctx, tx, b.MonsterID)
		if err != nil {
			return err
		}

		turns, err := decodeTurnLog(b.TurnLog)
		if err != nil {
			return err
		}
		turn := types.BattleTurn{
			Turn:            len(turns) + 1,
			QuestionID:      question.ID.String(),
			QuestionText:    question.Text,
			SubmittedAnswer: answer,
		}
		r := &TurnResult{}
		if answer == question.CorrectAnswer {
			turn.Correct = true
			damage := ch.Strength + 5*question.Difficulty
			b.MonsterHealth -= damage
			turn.DamageToMonster = damage
			r.Correct = true
			r.DamageToMonster = damage
		} else {
			turn.CorrectAnswer = question.CorrectAnswer
			damage := monster.Attack
			b.PlayerHealth -= damage
			turn.DamageToPlayer = damage
			r.DamageToPlayer = damage
		}

		if b.MonsterHealth <= 0 {
			b.MonsterHealth = 0
			b.Status = types.BattleStatusWon
		} else if b.PlayerHealth <= 0 {
			b.PlayerHealth = 0
			b.Status = types.BattleStatusLost
		}

		turns = append(turns, turn)
		raw, err := json.Marshal(turns)
		if err != nil {
			return err
		}
		b.TurnLog = datatypes.JSON(raw)
		// The next turn needs a fresh draw.
		b.CurrentQuestionID = nil
		if err := s.battleRepo.Save(ctx, tx, b); err != nil {
			return err
		}

		switch b.Status {
		case types.BattleStatusWon:
			ch.Gold += monster.GoldReward
			if err := s.characterRepo.Save(ctx, tx, ch); err != nil {
				return err
			}
			if monster.GoldReward > 0 {
				if err := s.auditService.Record(ctx, tx, AuditEntry{
					EventType:   types.EventGoldTransaction,
					CharacterID: &ch.ID,
					Data:        map[string]any{"amount": monster.GoldReward, "source": monster.Name},
				}); err != nil {
					return err
				}
			}
			if err := s.characterService.GainExperience(ctx, tx, ch, monster.XPReward); err != nil {
				return err
			}
			r.XPAwarded = monster.XPReward
			r.GoldAwarded = monster.GoldReward
			if err := s.recordEnd(ctx, tx, b); err != nil {
				return err
			}
		case types.BattleStatusLost:
			ch.Health = 0
			if err := s.characterRepo.Save(ctx, tx, ch); err != nil {
				return err
			}
			if err := s.recordEnd(ctx, tx, b); err != nil {
				return err
			}
		default:
			if err := s.auditService.Record(ctx, tx, AuditEntry{
				EventType:   types.EventBattleTurn,
				CharacterID: &ch.ID,
				Data: map[string]any{
					"battle_id": b.ID.String(),
					"turn":      turn.Turn,
					"correct":   turn.Correct,
				},
			}); err != nil {
				return err
			}
		}

		r.PlayerHealth = b.PlayerHealth
		r.MonsterHealth = b.MonsterHealth
		r.Status = b.Status
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *battleService) Flee(ctx context.Context, battleID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := s.battleRepo.GetByID(ctx, tx, battleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("battle not found")
			}
			return err
		}
		if b.Status != types.BattleStatusActive {
			return apperr.Rulef(apperr.CodeBattleNotActive, "battle is not active")
		}
		b.Status = types.BattleStatusFled
		if err := s.battleRepo.Save(ctx, tx, b); err != nil {
			return err
		}
		return s.recordEnd(ctx, tx, b)
	})
}

func (s *battleService) recordEnd(ctx context.Context, tx *gorm.DB, b *types.Battle) error {
	return s.auditService.Record(ctx, tx, AuditEntry{
		EventType:   types.EventBattleEnded,
		CharacterID: &b.CharacterID,
		Data:        map[string]any{"battle_id": b.ID.String(), "status": b.Status},
	})
}

func decodeTurnLog(raw datatypes.JSON) ([]types.BattleTurn, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var turns []types.BattleTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, err
	}
	return turns, nil
}
