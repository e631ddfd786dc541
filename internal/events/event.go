package events

import "time"

// Event types published on the principal's channel.
const (
	TypeActionGated      = "action_gated"
	TypeApprovalRequired = "approval_required"
	TypeApprovalDecided  = "approval_decided"
	TypeBrakeActivated   = "brake_activated"
	TypeBrakeResumed     = "brake_resumed"
)

// Event is the notification record fanned out to the real-time delivery
// layer. Delivery is at-least-once and never blocks the gating path.
type Event struct {
	ID         string    `json:"id"`
	Principal  string    `json:"principal"`
	Type       string    `json:"type"`
	Action     string    `json:"action,omitempty"`
	Category   string    `json:"category,omitempty"`
	Decision   string    `json:"decision,omitempty"`
	ApprovalID string    `json:"approval_id,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	At         time.Time `json:"at"`
}
