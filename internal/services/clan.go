package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
)

const snapshotDateLayout = "2006-01-02"

// activityWindowDays is the lookback used for active-member and
// daily-point metrics.
const activityWindowDays = 7

// ClanMetrics are the aggregates computed on demand and snapshotted
// daily.
type ClanMetrics struct {
	ClanID              uuid.UUID `json:"clan_id"`
	AvgCompletionRate   float64   `json:"avg_completion_rate"`
	TotalPoints         int       `json:"total_points"`
	ActiveMembers       int       `json:"active_members"`
	AvgDailyPoints      float64   `json:"avg_daily_points"`
	QuestCompletionRate float64   `json:"quest_completion_rate"`
	AvgMemberLevel      float64   `json:"avg_member_level"`
	PercentileRank      int       `json:"percentile_rank"`
}

type ClanService interface {
	CreateClan(ctx context.Context, classroomID uuid.UUID, name, description, emblem string) (*types.Clan, error)
	Get(ctx context.Context, clanID uuid.UUID) (*types.Clan, error)
	ListByClassroom(ctx context.Context, classroomID uuid.UUID) ([]*types.Clan, error)
	AddMember(ctx context.Context, clanID, characterID uuid.UUID) error
	RemoveMember(ctx context.Context, clanID, characterID uuid.UUID) error
	SetLeader(ctx context.Context, clanID, characterID uuid.UUID) error
	Metrics(ctx context.Context, clanID uuid.UUID) (*ClanMetrics, error)
	Snapshot(ctx context.Context, day time.Time) error
	History(ctx context.Context, clanID uuid.UUID, from, to time.Time) ([]*types.ClanProgressHistory, error)
}

type clanService struct {
	db               *gorm.DB
	log              *logger.Logger
	clanRepo         repos.ClanRepo
	historyRepo      repos.ClanProgressHistoryRepo
	classroomRepo    repos.ClassroomRepo
	characterRepo    repos.CharacterRepo
	studentRepo      repos.StudentRepo
	questLogRepo     repos.QuestLogRepo
	auditRepo        repos.AuditLogRepo
	characterService CharacterService
	auditService     AuditService
}

func NewClanService(
	db *gorm.DB,
	log *logger.Logger,
	clanRepo repos.ClanRepo,
	historyRepo repos.ClanProgressHistoryRepo,
	classroomRepo repos.ClassroomRepo,
	characterRepo repos.CharacterRepo,
	studentRepo repos.StudentRepo,
	questLogRepo repos.QuestLogRepo,
	auditRepo repos.AuditLogRepo,
	characterService CharacterService,
	auditService AuditService,
) ClanService {
	return &clanService{
		db:               db,
		log:              log.With("service", "ClanService"),
		clanRepo:         clanRepo,
		historyRepo:      historyRepo,
		classroomRepo:    classroomRepo,
		characterRepo:    characterRepo,
		studentRepo:      studentRepo,
		questLogRepo:     questLogRepo,
		auditRepo:        auditRepo,
		characterService: characterService,
		auditService:     auditService,
	}
}

func (s *clanService) CreateClan(ctx context.Context, classroomID uuid.UUID, name, description, emblem string) (*types.Clan, error) {
	if name == "" {
		return nil, apperr.Validationf("clan name is required")
	}
	var created *types.Clan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		classroom, err := s.classroomRepo.GetByID(ctx, tx, classroomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("classroom not found")
			}
			return err
		}
		existing, err := s.clanRepo.GetByClassroomID(ctx, tx, classroomID)
		if err != nil {
			return err
		}
		if len(existing) >= classroom.MaxClans {
			return apperr.Validationf("classroom already has %d clans", classroom.MaxClans)
		}
		taken, err := s.clanRepo.NameExists(ctx, tx, classroomID, name)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflictf("a clan named %q already exists in this classroom", name)
		}
		cl := &types.Clan{
			ClassroomID: classroomID,
			Name:        name,
			Description: description,
			Emblem:      emblem,
			Level:       1,
			IsActive:    true,
		}
		if _, err := s.clanRepo.Create(ctx, tx, []*types.Clan{cl}); err != nil {
			return err
		}
		created = cl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *clanService) Get(ctx context.Context, clanID uuid.UUID) (*types.Clan, error) {
	cl, err := s.clanRepo.GetByID(ctx, nil, clanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("clan not found")
		}
		return nil, err
	}
	return cl, nil
}

func (s *clanService) ListByClassroom(ctx context.Context, classroomID uuid.UUID) ([]*types.Clan, error) {
	return s.clanRepo.GetByClassroomID(ctx, nil, classroomID)
}

func (s *clanService) AddMember(ctx context.Context, clanID, characterID uuid.UUID) error {
	return s.characterService.JoinClan(ctx, characterID, clanID)
}

func (s *clanService) RemoveMember(ctx context.Context, clanID, characterID uuid.UUID) error {
	ch, err := s.characterRepo.GetByID(ctx, nil, characterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("character not found")
		}
		return err
	}
	if ch.ClanID == nil || *ch.ClanID != clanID {
		return apperr.Validationf("character is not a member of this clan")
	}
	return s.characterService.LeaveClan(ctx, characterID)
}

// SetLeader requires the character to already be a member.
func (s *clanService) SetLeader(ctx context.Context, clanID, characterID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.clanRepo.GetByID(ctx, tx, clanID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("clan not found")
			}
			return err
		}
		ch, err := s.characterRepo.GetByID(ctx, tx, characterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("character not found")
			}
			return err
		}
		if ch.ClanID == nil || *ch.ClanID != clanID {
			return apperr.Validationf("leader must be a clan member")
		}
		return s.clanRepo.UpdateLeader(ctx, tx, clanID, &characterID)
	})
}

func (s *clanService) Metrics(ctx context.Context, clanID uuid.UUID) (*ClanMetrics, error) {
	cl, err := s.Get(ctx, clanID)
	if err != nil {
		return nil, err
	}
	metrics, err := s.computeMetrics(ctx, nil, cl)
	if err != nil {
		return nil, err
	}
	siblings, err := s.clanRepo.GetByClassroomID(ctx, nil, cl.ClassroomID)
	if err != nil {
		return nil, err
	}
	ranks, err := s.percentileRanks(ctx, nil, siblings)
	if err != nil {
		return nil, err
	}
	metrics.PercentileRank = ranks[cl.ID]
	return metrics, nil
}

func (s *clanService) computeMetrics(ctx context.Context, tx *gorm.DB, cl *types.Clan) (*ClanMetrics, error) {
	members, err := s.characterRepo.GetByClanID(ctx, tx, cl.ID)
	if err != nil {
		return nil, err
	}
	metrics := &ClanMetrics{ClanID: cl.ID}
	if len(members) == 0 {
		return metrics, nil
	}

	memberIDs := make([]uuid.UUID, 0, len(members))
	levelSum := 0
	completionSum := 0.0
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
		metrics.TotalPoints += m.Experience
		levelSum += m.Level
		assigned, err := s.questLogRepo.CountPerCharacter(ctx, tx, m.ID, "")
		if err != nil {
			return nil, err
		}
		completed, err := s.questLogRepo.CountPerCharacter(ctx, tx, m.ID, types.QuestStatusCompleted)
		if err != nil {
			return nil, err
		}
		if assigned > 0 {
			completionSum += float64(completed) / float64(assigned)
		}
	}
	metrics.AvgMemberLevel = float64(levelSum) / float64(len(members))
	metrics.AvgCompletionRate = completionSum / float64(len(members))

	assigned, err := s.questLogRepo.CountByCharacterIDs(ctx, tx, memberIDs, "")
	if err != nil {
		return nil, err
	}
	completed, err := s.questLogRepo.CountByCharacterIDs(ctx, tx, memberIDs, types.QuestStatusCompleted)
	if err != nil {
		return nil, err
	}
	if assigned > 0 {
		metrics.QuestCompletionRate = float64(completed) / float64(assigned)
	}

	// A member is active when any audit row in the window carries either
	// their character id (gameplay events) or their user id (logins).
	since := time.Now().UTC().AddDate(0, 0, -activityWindowDays)
	userIDs := make([]uuid.UUID, 0, len(members))
	userByCharacter := make(map[uuid.UUID]uuid.UUID, len(members))
	for _, m := range members {
		student, err := s.studentRepo.GetByID(ctx, tx, m.StudentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		userIDs = append(userIDs, student.UserID)
		userByCharacter[m.ID] = student.UserID
	}
	activeUsers, activeCharacters, err := s.auditRepo.ActiveIDsSince(ctx, tx, userIDs, memberIDs, since)
	if err != nil {
		return nil, err
	}
	active := 0
	for _, m := range members {
		if activeCharacters[m.ID] || activeUsers[userByCharacter[m.ID]] {
			active++
		}
	}
	metrics.ActiveMembers = active

	xp, err := s.auditService.SumXPGains(ctx, tx, memberIDs, since)
	if err != nil {
		return nil, err
	}
	metrics.AvgDailyPoints = float64(xp) / float64(activityWindowDays)
	return metrics, nil
}

// percentileRanks ranks clans by total member experience, descending.
// percentile = 100 - (rank_index / n) * 100, floored, never below 1.
func (s *clanService) percentileRanks(ctx context.Context, tx *gorm.DB, clans []*types.Clan) (map[uuid.UUID]int, error) {
	type scored struct {
		id     uuid.UUID
		points int
	}
	scores := make([]scored, 0, len(clans))
	for _, cl := range clans {
		members, err := s.characterRepo.GetByClanID(ctx, tx, cl.ID)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, m := range members {
			total += m.Experience
		}
		scores = append(scores, scored{id: cl.ID, points: total})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].points > scores[j].points })
	ranks := make(map[uuid.UUID]int, len(scores))
	n := len(scores)
	for i, sc := range scores {
		p := 100 - (i*100)/n
		if p < 1 {
			p = 1
		}
		ranks[sc.id] = p
	}
	return ranks, nil
}

// Snapshot writes one ClanProgressHistory row per active clan for the
// given day. Re-running a day overwrites its rows.
func (s *clanService) Snapshot(ctx context.Context, day time.Time) error {
	date := day.UTC().Format(snapshotDateLayout)
	clans, err := s.clanRepo.GetAllActive(ctx, nil)
	if err != nil {
		return err
	}
	byClassroom := map[uuid.UUID][]*types.Clan{}
	for _, cl := range clans {
		byClassroom[cl.ClassroomID] = append(byClassroom[cl.ClassroomID], cl)
	}
	for _, group := range byClassroom {
		ranks, err := s.percentileRanks(ctx, nil, group)
		if err != nil {
			return err
		}
		for _, cl := range group {
			metrics, err := s.computeMetrics(ctx, nil, cl)
			if err != nil {
				return err
			}
			row := &types.ClanProgressHistory{
				ClanID:            cl.ID,
				SnapshotDate:      date,
				AvgCompletionRate: metrics.AvgCompletionRate,
				TotalPoints:       metrics.TotalPoints,
				ActiveMembers:     metrics.ActiveMembers,
				AvgDailyPoints:    metrics.AvgDailyPoints,
				QuestCompletion:   metrics.QuestCompletionRate,
				AvgMemberLevel:    metrics.AvgMemberLevel,
				PercentileRank:    ranks[cl.ID],
			}
			if err := s.historyRepo.UpsertSnapshot(ctx, nil, row); err != nil {
				return err
			}
		}
	}
	s.log.Info("clan snapshot complete", "date", date, "clans", len(clans))
	return nil
}

func (s *clanService) History(ctx context.Context, clanID uuid.UUID, from, to time.Time) ([]*types.ClanProgressHistory, error) {
	return s.historyRepo.GetWindow(ctx, nil, clanID,
		from.UTC().Format(snapshotDateLayout),
		to.UTC().Format(snapshotDateLayout))
}
