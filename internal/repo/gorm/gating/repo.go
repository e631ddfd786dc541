// Package gatinggorm backs the tier resolver and restriction evaluator with
// gorm tables.
package gatinggorm

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/autonomy"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/restrictions"
)

type Repo struct{ db *gorm.DB }

func New(db *gorm.DB) (*Repo, error) {
	if err := db.AutoMigrate(&AutonomyPreferenceRecord{}, &OrgMemberRecord{}, &RestrictionRuleRecord{}); err != nil {
		return nil, err
	}
	return &Repo{db: db}, nil
}

// AutonomyPreference implements autonomy.PreferenceStore.
func (r *Repo) AutonomyPreference(ctx context.Context, principal string) (autonomy.Level, bool, error) {
	var rec AutonomyPreferenceRecord
	err := r.db.WithContext(ctx).Where("principal_id = ?", principal).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return autonomy.L0, false, nil
	}
	if err != nil {
		return autonomy.L0, false, err
	}
	lvl, perr := autonomy.ParseLevel(rec.Level)
	if perr != nil {
		// Malformed preference reads as no preference.
		return autonomy.L0, false, nil
	}
	return lvl, true, nil
}

// SetAutonomyPreference is the admin-side write.
func (r *Repo) SetAutonomyPreference(ctx context.Context, principal string, lvl autonomy.Level) error {
	rec := AutonomyPreferenceRecord{PrincipalID: principal, Level: lvl.String()}
	return r.db.WithContext(ctx).Save(&rec).Error
}

// OrgForPrincipal implements restrictions.Directory.
func (r *Repo) OrgForPrincipal(ctx context.Context, principal string) (string, bool, error) {
	var rec OrgMemberRecord
	err := r.db.WithContext(ctx).Where("principal_id = ?", principal).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.OrgID, true, nil
}

// Rules implements restrictions.PolicySource.
func (r *Repo) Rules(ctx context.Context, orgID string) ([]restrictions.Rule, error) {
	var recs []RestrictionRuleRecord
	if err := r.db.WithContext(ctx).Where("org_id = ?", orgID).Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]restrictions.Rule, 0, len(recs))
	for _, rec := range recs {
		out = append(out, restrictions.Rule{
			Company:  rec.Company,
			Industry: rec.Industry,
			Effect:   restrictions.Effect(rec.Effect),
			Reason:   rec.Reason,
		})
	}
	return out, nil
}
