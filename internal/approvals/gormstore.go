package approvals

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ApprovalRecord is the persisted row shape.
type ApprovalRecord struct {
	ID         string `gorm:"primaryKey"`
	Principal  string `gorm:"index"`
	Category   string `gorm:"index"`
	Action     string
	Payload    []byte `gorm:"type:blob"`
	Rationale  string
	Confidence float64
	Status     string `gorm:"index"`
	CreatedAt  time.Time
	DecidedAt  *time.Time
	ExpiresAt  time.Time `gorm:"index"`
}

// GormStore persists approval items via gorm (sqlite or postgres).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&ApprovalRecord{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func toRecord(it *Item) ApprovalRecord {
	return ApprovalRecord{
		ID:         it.ID,
		Principal:  it.Principal,
		Category:   it.Category,
		Action:     it.Action,
		Payload:    it.Payload,
		Rationale:  it.Rationale,
		Confidence: it.Confidence,
		Status:     string(it.Status),
		CreatedAt:  it.CreatedAt,
		DecidedAt:  it.DecidedAt,
		ExpiresAt:  it.ExpiresAt,
	}
}

func fromRecord(r *ApprovalRecord) *Item {
	return &Item{
		ID:         r.ID,
		Principal:  r.Principal,
		Category:   r.Category,
		Action:     r.Action,
		Payload:    r.Payload,
		Rationale:  r.Rationale,
		Confidence: r.Confidence,
		Status:     Status(r.Status),
		CreatedAt:  r.CreatedAt,
		DecidedAt:  r.DecidedAt,
		ExpiresAt:  r.ExpiresAt,
	}
}

func (s *GormStore) Create(ctx context.Context, it *Item) error {
	rec := toRecord(it)
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (*Item, error) {
	var rec ApprovalRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRecord(&rec), nil
}

func (s *GormStore) ListPending(ctx context.Context, principal, category string, now time.Time) ([]*Item, error) {
	q := s.db.WithContext(ctx).
		Where("principal = ? AND status = ? AND expires_at > ?", principal, string(StatusPending), now)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var recs []ApprovalRecord
	if err := q.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]*Item, 0, len(recs))
	for i := range recs {
		out = append(out, fromRecord(&recs[i]))
	}
	return out, nil
}

// Decide moves a pending row to a terminal state. The WHERE status='pending'
// guard makes a concurrent double-decision lose cleanly.
func (s *GormStore) Decide(ctx context.Context, id string, status Status, payload []byte, decidedAt time.Time) (*Item, error) {
	updates := map[string]any{
		"status":     string(status),
		"decided_at": decidedAt,
	}
	if payload != nil {
		updates["payload"] = payload
	}
	res := s.db.WithContext(ctx).
		Model(&ApprovalRecord{}).
		Where("id = ? AND status = ?", id, string(StatusPending)).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.Get(ctx, id)
}

func (s *GormStore) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&ApprovalRecord{}).
		Where("status = ? AND expires_at <= ?", string(StatusPending), now).
		Update("status", string(StatusExpired))
	return res.RowsAffected, res.Error
}
