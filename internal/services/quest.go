package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
)

// maxPrerequisiteDepth bounds the parent walk used for cycle detection.
const maxPrerequisiteDepth = 64

// CreateQuestInput carries a quest definition plus its rewards and
// consequences, created together in one transaction.
type CreateQuestInput struct {
	Title            string
	Description      string
	Type             string
	LevelRequirement int
	StartDate        *time.Time
	EndDate          *time.Time
	TimeLimitHours   *int
	ParentQuestID    *uuid.UUID
	Requirements     map[string]any
	Criteria         map[string]any
	Rewards          []RewardInput
	Consequences     []ConsequenceInput
}

type RewardInput struct {
	Type   string
	Amount int
	ItemID *uuid.UUID
}

type ConsequenceInput struct {
	ExperiencePenalty int
	GoldPenalty       int
	HealthPenalty     int
}

// AssignTarget names the audience of an assignment. Exactly one field
// should be set.
type AssignTarget struct {
	StudentID *uuid.UUID
	ClanID    *uuid.UUID
	ClassID   *uuid.UUID
}

// AssignResult summarizes a fan-out assignment.
type AssignResult struct {
	Assigned int      `json:"assigned"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

type QuestService interface {
	CreateQuest(ctx context.Context, teacherID uuid.UUID, input CreateQuestInput) (*types.Quest, error)
	GetQuest(ctx context.Context, questID uuid.UUID) (*types.Quest, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*types.Quest, error)
	SetParent(ctx context.Context, questID uuid.UUID, parentID *uuid.UUID) error
	Available(ctx context.Context, questID, characterID uuid.UUID) (bool, error)
	Assign(ctx context.Context, questID uuid.UUID, target AssignTarget) (*AssignResult, error)
	Start(ctx context.Context, characterID, questID uuid.UUID) error
	UpdateProgress(ctx context.Context, characterID, questID uuid.UUID, delta map[string]any) error
	Complete(ctx context.Context, characterID, questID uuid.UUID) error
	Fail(ctx context.Context, characterID, questID uuid.UUID) error
	QuestMap(ctx context.Context, characterID uuid.UUID) ([]*types.QuestLog, error)
}

type questService struct {
	db               *gorm.DB
	log              *logger.Logger
	questRepo        repos.QuestRepo
	questRewardRepo  repos.QuestRewardRepo
	questConsRepo    repos.QuestConsequenceRepo
	questLogRepo     repos.QuestLogRepo
	characterRepo    repos.CharacterRepo
	studentRepo      repos.StudentRepo
	clanRepo         repos.ClanRepo
	characterService CharacterService
	inventoryService InventoryService
	abilityService   AbilityService
	auditService     AuditService
}

func NewQuestService(
	db *gorm.DB,
	log *logger.Logger,
	questRepo repos.QuestRepo,
	questRewardRepo repos.QuestRewardRepo,
	questConsRepo repos.QuestConsequenceRepo,
	questLogRepo repos.QuestLogRepo,
	characterRepo repos.CharacterRepo,
	studentRepo repos.StudentRepo,
	clanRepo repos.ClanRepo,
	characterService CharacterService,
	inventoryService InventoryService,
	abilityService AbilityService,
	auditService AuditService,
) QuestService {
	return &questService{
		db:               db,
		log:              log.With("service", "QuestService"),
		questRepo:        questRepo,
		questRewardRepo:  questRewardRepo,
		questConsRepo:    questConsRepo,
		questLogRepo:     questLogRepo,
		characterRepo:    characterRepo,
		studentRepo:      studentRepo,
		clanRepo:         clanRepo,
		characterService: characterService,
		inventoryService: inventoryService,
		abilityService:   abilityService,
		auditService:     auditService,
	}
}

func (s *questService) CreateQuest(ctx context.Context, teacherID uuid.UUID, input CreateQuestInput) (*types.Quest, error) {
	if input.Title == "" {
		return nil, apperr.Validationf("quest title is required")
	}
	if input.Type == "" {
		input.Type = types.QuestTypeStory
	}
	if input.LevelRequirement < 1 {
		input.LevelRequirement = 1
	}

	var created *types.Quest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if input.ParentQuestID != nil {
			if err := s.checkNoCycle(ctx, tx, uuid.Nil, *input.ParentQuestID); err != nil {
				return err
			}
		}
		q := &types.Quest{
			TeacherID:        teacherID,
			Title:            input.Title,
			Description:      input.Description,
			Type:             input.Type,
			LevelRequirement: input.LevelRequirement,
			StartDate:        input.StartDate,
			EndDate:          input.EndDate,
			TimeLimitHours:   input.TimeLimitHours,
			ParentQuestID:    input.ParentQuestID,
		}
		if input.Requirements != nil {
			raw, err := json.Marshal(input.Requirements)
			if err != nil {
				return err
			}
			q.Requirements = datatypes.JSON(raw)
		}
		if input.Criteria != nil {
			raw, err := json.Marshal(input.Criteria)
			if err != nil {
				return err
			}
			q.CompletionCriteria = datatypes.JSON(raw)
		}
		if _, err := s.questRepo.Create(ctx, tx, []*types.Quest{q}); err != nil {
			return err
		}
		rewards := make([]*types.QuestReward, 0, len(input.Rewards))
		for _, r := range input.Rewards {
			rewards = append(rewards, &types.QuestReward{
				QuestID: q.ID,
				Type:    r.Type,
				Amount:  r.Amount,
				ItemID:  r.ItemID,
			})
		}
		if _, err := s.questRewardRepo.Create(ctx, tx, rewards); err != nil {
			return err
		}
		consequences := make([]*types.QuestConsequence, 0, len(input.Consequences))
		for _, c := range input.Consequences {
			consequences = append(consequences, &types.QuestConsequence{
				QuestID:           q.ID,
				ExperiencePenalty: c.ExperiencePenalty,
				GoldPenalty:       c.GoldPenalty,
				HealthPenalty:     c.HealthPenalty,
			})
		}
		if _, err := s.questConsRepo.Create(ctx, tx, consequences); err != nil {
			return err
		}
		created = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.questRepo.GetByID(ctx, nil, created.ID)
}

func (s *questService) GetQuest(ctx context.Context, questID uuid.UUID) (*types.Quest, error) {
	q, err := s.questRepo.GetByID(ctx, nil, questID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("quest not found")
		}
		return nil, err
	}
	return q, nil
}

func (s *questService) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*types.Quest, error) {
	return s.questRepo.GetByTeacherID(ctx, nil, teacherID)
}

func (s *questService) SetParent(ctx context.Context, questID uuid.UUID, parentID *uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.questRepo.GetByID(ctx, tx, questID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("quest not found")
			}
			return err
		}
		if parentID != nil {
			if err := s.checkNoCycle(ctx, tx, questID, *parentID); err != nil {
				return err
			}
		}
		return s.questRepo.UpdateParent(ctx, tx, questID, parentID)
	})
}

// checkNoCycle walks the prerequisite chain upward from the proposed
// parent and rejects the edit if it reaches questID or exceeds the depth
// bound.
func (s *questService) checkNoCycle(ctx context.Context, tx *gorm.DB, questID, parentID uuid.UUID) error {
	current := parentID
	for depth := 0; depth < maxPrerequisiteDepth; depth++ {
		if current == questID {
			return apperr.Rulef(apperr.CodePrerequisiteCycle, "prerequisite chain would form a cycle")
		}
		parent, err := s.questRepo.GetByID(ctx, tx, current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("prerequisite quest not found")
			}
			return err
		}
		if parent.ParentQuestID == nil {
			return nil
		}
		current = *parent.ParentQuestID
	}
	return apperr.Rulef(apperr.CodePrerequisiteCycle, "prerequisite chain too deep")
}

// Available reports whether a character meets a quest's level, time
// window and prerequisite requirements.
func (s *questService) Available(ctx context.Context, questID, characterID uuid.UUID) (bool, error) {
	q, err := s.GetQuest(ctx, questID)
	if err != nil {
		return false, err
	}
	ch, err := s.characterRepo.GetByID(ctx, nil, characterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperr.NotFoundf("character not found")
		}
		return false, err
	}
	return s.available(ctx, nil, q, ch, time.Now().UTC())
}

func (s *questService) available(ctx context.Context, tx *gorm.DB, q *types.Quest, ch *types.Character, now time.Time) (bool, error) {
	if ch.Level < q.LevelRequirement {
		return false, nil
	}
	if q.StartDate != nil && now.Before(*q.StartDate) {
		return false, nil
	}
	if q.EndDate != nil && now.After(*q.EndDate) {
		return false, nil
	}
	if q.ParentQuestID != nil {
		done, err := s.questLogRepo.HasCompleted(ctx, tx, ch.ID, *q.ParentQuestID)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
	}
	return true, nil
}

// Assign fans a quest out to the target's active characters. Each
// character gets the first free cell of their 10x10 map, scanned
// row-major; a full map records an error and skips that character.
func (s *questService) Assign(ctx context.Context, questID uuid.UUID, target AssignTarget) (*AssignResult, error) {
	result := &AssignResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.questRepo.GetByID(ctx, tx, questID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("quest not found")
			}
			return err
		}
		characters, err := s.resolveTarget(ctx, tx, target)
		if err != nil {
			return err
		}
		for _, ch := range characters {
			if existing, err := s.questLogRepo.GetByCharacterAndQuest(ctx, tx, ch.ID, questID); err == nil && existing != nil {
				result.Skipped++
				continue
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			x, y, found, err := s.firstFreeCell(ctx, tx, ch.ID)
			if err != nil {
				return err
			}
			if !found {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("No available coordinates for character %s", ch.Name))
				continue
			}
			entry := &types.QuestLog{
				CharacterID: ch.ID,
				QuestID:     questID,
				Status:      types.QuestStatusNotStarted,
				X:           &x,
				Y:           &y,
			}
			if _, err := s.questLogRepo.Create(ctx, tx, []*types.QuestLog{entry}); err != nil {
				return err
			}
			if err := s.auditService.Record(ctx, tx, AuditEntry{
				EventType:   types.EventQuestAssigned,
				CharacterID: &ch.ID,
				Data:        map[string]any{"quest_id": questID.String(), "x": x, "y": y},
			}); err != nil {
				return err
			}
			result.Assigned++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *questService) resolveTarget(ctx context.Context, tx *gorm.DB, target AssignTarget) ([]*types.Character, error) {
	switch {
	case target.StudentID != nil:
		ch, err := s.characterRepo.GetActiveByStudentID(ctx, tx, *target.StudentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFoundf("student has no active character")
			}
			return nil, err
		}
		return []*types.Character{ch}, nil
	case target.ClanID != nil:
		return s.characterRepo.GetByClanID(ctx, tx, *target.ClanID)
	case target.ClassID != nil:
		students, err := s.studentRepo.GetByClassID(ctx, tx, *target.ClassID)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(students))
		for _, st := range students {
			ids = append(ids, st.ID)
		}
		return s.characterRepo.GetActiveByStudentIDs(ctx, tx, ids)
	}
	return nil, apperr.Validationf("assignment target is required")
}

// firstFreeCell scans the character's quest map top-left to bottom-right
// and returns the first cell not taken by an existing log.
func (s *questService) firstFreeCell(ctx context.Context, tx *gorm.DB, characterID uuid.UUID) (int, int, bool, error) {
	logs, err := s.questLogRepo.GetByCharacterID(ctx, tx, characterID)
	if err != nil {
		return 0, 0, false, err
	}
	var used [types.QuestGridHeight][types.QuestGridWidth]bool
	for _, l := range logs {
		if l.X == nil || l.Y == nil {
			continue
		}
		if *l.Y >= 0 && *l.Y < types.QuestGridHeight && *l.X >= 0 && *l.X < types.QuestGridWidth {
			used[*l.Y][*l.X] = true
		}
	}
	for y := 0; y < types.QuestGridHeight; y++ {
		for x := 0; x < types.QuestGridWidth; x++ {
			if !used[y][x] {
				return x, y, true, nil
			}
		}
	}
	return 0, 0, false, nil
}

func (s *questService) Start(ctx context.Context, characterID, questID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.logFor(ctx, tx, characterID, questID)
		if err != nil {
			return err
		}
		if entry.Status != types.QuestStatusNotStarted {
			return apperr.Rulef(apperr.CodeInvalidTransition, "quest already %s", entry.Status)
		}
		q, err := s.questRepo.GetByID(ctx, tx, questID)
		if err != nil {
			return err
		}
		ch, err := s.characterRepo.GetByID(ctx, tx, characterID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		ok, err := s.available(ctx, tx, q, ch, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Rulef(apperr.CodeQuestUnavailable, "quest requirements not met")
		}
		if err := s.questLogRepo.UpdateStatus(ctx, tx, entry.ID, types.QuestStatusInProgress, &now, nil); err != nil {
			return err
		}
		return s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventQuestStarted,
			CharacterID: &characterID,
			Data:        map[string]any{"quest_id": questID.String()},
		})
	})
}

func (s *questService) UpdateProgress(ctx context.Context, characterID, questID uuid.UUID, delta map[string]any) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.logFor(ctx, tx, characterID, questID)
		if err != nil {
			return err
		}
		if entry.Status != types.QuestStatusInProgress {
			return apperr.Rulef(apperr.CodeInvalidTransition, "quest is not in progress")
		}
		merged := map[string]any{}
		if len(entry.ProgressData) > 0 {
			if err := json.Unmarshal(entry.ProgressData, &merged); err != nil {
				return err
			}
		}
		for k, v := range delta {
			merged[k] = v
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		return s.questLogRepo.UpdateProgress(ctx, tx, entry.ID, datatypes.JSON(raw))
	})
}

// Complete transitions in_progress to completed and distributes every
// reward atomically.
func (s *questService) Complete(ctx context.Context, characterID, questID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.logFor(ctx, tx, characterID, questID)
		if err != nil {
			return err
		}
		if entry.Status != types.QuestStatusInProgress {
			return apperr.Rulef(apperr.CodeInvalidTransition, "quest is not in progress")
		}
		q, err := s.questRepo.GetByID(ctx, tx, questID)
		if err != nil {
			return err
		}
		ch, err := s.characterRepo.GetByID(ctx, tx, characterID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := s.questLogRepo.UpdateStatus(ctx, tx, entry.ID, types.QuestStatusCompleted, nil, &now); err != nil {
			return err
		}
		for _, reward := range q.Rewards {
			if err := s.applyReward(ctx, tx, ch, q, reward); err != nil {
				return err
			}
		}
		return s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventQuestCompleted,
			CharacterID: &characterID,
			Data:        map[string]any{"quest_id": questID.String()},
		})
	})
}

func (s *questService) applyReward(ctx context.Context, tx *gorm.DB, ch *types.Character, q *types.Quest, reward types.QuestReward) error {
	switch reward.Type {
	case types.RewardExperience:
		return s.characterService.GainExperience(ctx, tx, ch, reward.Amount)
	case types.RewardGold:
		ch.Gold += reward.Amount
		if err := s.characterRepo.Save(ctx, tx, ch); err != nil {
			return err
		}
		return s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventGoldTransaction,
			CharacterID: &ch.ID,
			Data:        map[string]any{"amount": reward.Amount, "source": q.Title},
		})
	case types.RewardEquipment:
		if reward.ItemID == nil {
			return nil
		}
		_, err := s.inventoryService.GrantTx(ctx, tx, ch.ID, *reward.ItemID)
		if err != nil && apperr.KindOf(err) == apperr.KindRule {
			// Already owned or full inventory does not void the quest.
			s.log.Warn("skipping equipment reward", "character_id", ch.ID, "error", err)
			return nil
		}
		return err
	case types.RewardAbility:
		if reward.ItemID == nil {
			return nil
		}
		_, err := s.abilityService.LearnTx(ctx, tx, ch.ID, *reward.ItemID)
		if err != nil && apperr.KindOf(err) == apperr.KindRule {
			s.log.Warn("skipping ability reward", "character_id", ch.ID, "error", err)
			return nil
		}
		return err
	case types.RewardClanExperience:
		if ch.ClanID == nil {
			return nil
		}
		cl, err := s.clanRepo.GetByID(ctx, tx, *ch.ClanID)
		if err != nil {
			return err
		}
		cl.Experience += reward.Amount
		cl.Level = types.ClanLevelForExperience(cl.Experience)
		return s.clanRepo.Save(ctx, tx, cl)
	}
	return apperr.Validationf("unknown reward type %q", reward.Type)
}

// Fail transitions in_progress to failed and applies consequences, each
// floored at zero.
func (s *questService) Fail(ctx context.Context, characterID, questID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.logFor(ctx, tx, characterID, questID)
		if err != nil {
			return err
		}
		if entry.Status != types.QuestStatusInProgress {
			return apperr.Rulef(apperr.CodeInvalidTransition, "quest is not in progress")
		}
		q, err := s.questRepo.GetByID(ctx, tx, questID)
		if err != nil {
			return err
		}
		ch, err := s.characterRepo.GetByID(ctx, tx, characterID)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := s.questLogRepo.UpdateStatus(ctx, tx, entry.ID, types.QuestStatusFailed, nil, &now); err != nil {
			return err
		}
		for _, cons := range q.Consequences {
			ch.Experience -= cons.ExperiencePenalty
			if ch.Experience < 0 {
				ch.Experience = 0
			}
			ch.Level = types.LevelForExperience(ch.Experience)
			ch.Gold -= cons.GoldPenalty
			if ch.Gold < 0 {
				ch.Gold = 0
			}
			ch.Health -= cons.HealthPenalty
			if ch.Health < 0 {
				ch.Health = 0
			}
		}
		if err := s.characterRepo.Save(ctx, tx, ch); err != nil {
			return err
		}
		return s.auditService.Record(ctx, tx, AuditEntry{
			EventType:   types.EventQuestFailed,
			CharacterID: &characterID,
			Data:        map[string]any{"quest_id": questID.String()},
		})
	})
}

func (s *questService) QuestMap(ctx context.Context, characterID uuid.UUID) ([]*types.QuestLog, error) {
	return s.questLogRepo.GetByCharacterID(ctx, nil, characterID)
}

func (s *questService) logFor(ctx context.Context, tx *gorm.DB, characterID, questID uuid.UUID) (*types.QuestLog, error) {
	entry, err := s.questLogRepo.GetByCharacterAndQuest(ctx, tx, characterID, questID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("quest is not assigned to this character")
		}
		return nil, err
	}
	return entry, nil
}
