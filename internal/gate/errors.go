package gate

import (
	"errors"
	"fmt"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/autonomy"
)

// ErrBlocked is the umbrella for every "this action will not run" outcome.
// Specific causes wrap it so UIs can explain which veto fired.
var ErrBlocked = errors.New("action blocked")

// ErrBrakeActive: the principal's emergency brake is engaged. Takes
// precedence over everything else.
var ErrBrakeActive = fmt.Errorf("%w: emergency brake engaged", ErrBlocked)

// ErrRestrictionBlocked: the action's target is blocked by organization
// policy.
var ErrRestrictionBlocked = fmt.Errorf("%w: organization restriction", ErrBlocked)

// TierViolationError is a configuration-level rejection: the operation
// declares a minimum tier above what the principal has. Deliberately not an
// ErrBlocked — callers misconfigured the call, the runtime didn't veto it.
type TierViolationError struct {
	Required autonomy.Level
	Actual   autonomy.Level
}

func (e *TierViolationError) Error() string {
	return fmt.Sprintf("operation requires tier %s, principal has %s", e.Required, e.Actual)
}
