package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
)

// AuditEntry is the write-side view of an audit event.
type AuditEntry struct {
	EventType   string
	UserID      *uuid.UUID
	CharacterID *uuid.UUID
	Data        map[string]any
	IPAddress   string
}

// XPTimelinePoint is one XP_GAIN event on a character's timeline.
type XPTimelinePoint struct {
	At     time.Time `json:"at"`
	Amount int       `json:"amount"`
	Source string    `json:"source,omitempty"`
}

// GoldSummary aggregates a character's gold flows from the audit log.
type GoldSummary struct {
	Earned int `json:"earned"`
	Spent  int `json:"spent"`
}

type AuditService interface {
	// Record appends an event. It participates in the caller's
	// transaction when tx is non-nil.
	Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) error
	ListEvents(ctx context.Context, filter repos.AuditFilter) ([]*types.AuditLog, error)
	XPTimeline(ctx context.Context, characterID uuid.UUID) ([]XPTimelinePoint, error)
	GoldSummary(ctx context.Context, characterID uuid.UUID) (*GoldSummary, error)
	SumXPGains(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID, since time.Time) (int, error)
}

type auditService struct {
	db       *gorm.DB
	log      *logger.Logger
	auditRepo repos.AuditLogRepo
}

func NewAuditService(db *gorm.DB, log *logger.Logger, auditRepo repos.AuditLogRepo) AuditService {
	return &auditService{
		db:        db,
		log:       log.With("service", "AuditService"),
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) error {
	payload := datatypes.JSON([]byte("{}"))
	if entry.Data != nil {
		raw, err := json.Marshal(entry.Data)
		if err != nil {
			return err
		}
		payload = datatypes.JSON(raw)
	}
	row := &types.AuditLog{
		EventType:   entry.EventType,
		UserID:      entry.UserID,
		CharacterID: entry.CharacterID,
		EventData:   payload,
		IPAddress:   entry.IPAddress,
	}
	_, err := s.auditRepo.Create(ctx, tx, []*types.AuditLog{row})
	return err
}

func (s *auditService) ListEvents(ctx context.Context, filter repos.AuditFilter) ([]*types.AuditLog, error) {
	return s.auditRepo.List(ctx, nil, filter)
}

func (s *auditService) XPTimeline(ctx context.Context, characterID uuid.UUID) ([]XPTimelinePoint, error) {
	rows, err := s.auditRepo.List(ctx, nil, repos.AuditFilter{
		CharacterIDs: []uuid.UUID{characterID},
		EventTypes:   []string{types.EventXPGain},
	})
	if err != nil {
		return nil, err
	}
	points := make([]XPTimelinePoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, XPTimelinePoint{
			At:     row.CreatedAt,
			Amount: intField(row.EventData, "amount"),
			Source: stringField(row.EventData, "source"),
		})
	}
	return points, nil
}

func (s *auditService) GoldSummary(ctx context.Context, characterID uuid.UUID) (*GoldSummary, error) {
	rows, err := s.auditRepo.List(ctx, nil, repos.AuditFilter{
		CharacterIDs: []uuid.UUID{characterID},
		EventTypes:   []string{types.EventGoldTransaction, types.EventPurchase},
	})
	if err != nil {
		return nil, err
	}
	summary := &GoldSummary{}
	for _, row := range rows {
		switch row.EventType {
		case types.EventGoldTransaction:
			amount := intField(row.EventData, "amount")
			if amount >= 0 {
				summary.Earned += amount
			} else {
				summary.Spent += -amount
			}
		case types.EventPurchase:
			summary.Spent += intField(row.EventData, "gold_spent")
		}
	}
	return summary, nil
}

func (s *auditService) SumXPGains(ctx context.Context, tx *gorm.DB, characterIDs []uuid.UUID, since time.Time) (int, error) {
	if len(characterIDs) == 0 {
		return 0, nil
	}
	rows, err := s.auditRepo.List(ctx, tx, repos.AuditFilter{
		CharacterIDs: characterIDs,
		EventTypes:   []string{types.EventXPGain},
		Since:        since,
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, row := range rows {
		total += intField(row.EventData, "amount")
	}
	return total, nil
}

func intField(raw datatypes.JSON, key string) int {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return 0
	}
	if v, ok := data[key].(float64); ok {
		return int(v)
	}
	return 0
}

func stringField(raw datatypes.JSON, key string) string {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return ""
	}
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
