package audit

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ActivityRecord is the persisted activity row.
type ActivityRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Principal string `gorm:"index"`
	Type      string `gorm:"index"`
	Severity  string
	Details   []byte `gorm:"type:blob"`
	At        time.Time
}

// GormRecorder persists entries; append-only, no updates or deletes.
type GormRecorder struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) (*GormRecorder, error) {
	if err := db.AutoMigrate(&ActivityRecord{}); err != nil {
		return nil, err
	}
	return &GormRecorder{db: db}, nil
}

func (r *GormRecorder) Record(ctx context.Context, e Entry) error {
	var details []byte
	if len(e.Details) > 0 {
		details, _ = json.Marshal(e.Details)
	}
	rec := ActivityRecord{
		Principal: e.Principal,
		Type:      e.Type,
		Severity:  string(e.Severity),
		Details:   details,
		At:        e.At,
	}
	return r.db.WithContext(ctx).Create(&rec).Error
}

// Recent returns the newest entries for a principal, for the admin surface.
func (r *GormRecorder) Recent(ctx context.Context, principal string, limit int) ([]ActivityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []ActivityRecord
	err := r.db.WithContext(ctx).
		Where("principal = ?", principal).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
