package gatinggorm

// AutonomyPreferenceRecord stores a principal's chosen tier. Absence means
// L0; the gating subsystem never writes this table.
type AutonomyPreferenceRecord struct {
	PrincipalID string `gorm:"primaryKey"`
	Level       string // "L0".."L3"
}

// OrgMemberRecord links a principal to its organization.
type OrgMemberRecord struct {
	PrincipalID string `gorm:"primaryKey"`
	OrgID       string `gorm:"index"`
}

// RestrictionRuleRecord is one organization policy rule.
type RestrictionRuleRecord struct {
	ID       uint   `gorm:"primaryKey"`
	OrgID    string `gorm:"index"`
	Company  string
	Industry string
	Effect   string // block | require_approval
	Reason   string
}
