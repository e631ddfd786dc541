package autonomy

import (
	"fmt"
	"strings"
)

// Level is an ordered autonomy tier. Higher rank means the agent may act
// with less supervision.
type Level int

const (
	// L0: agent only suggests; nothing executes on the user's behalf.
	L0 Level = iota
	// L1: agent may perform reads itself, writes stay disabled.
	L1
	// L2: writes are allowed but parked for human approval first.
	L2
	// L3: full autonomy, writes execute directly.
	L3
)

func (l Level) String() string {
	switch l {
	case L0:
		return "L0"
	case L1:
		return "L1"
	case L2:
		return "L2"
	case L3:
		return "L3"
	}
	return fmt.Sprintf("L%d", int(l))
}

// Rank returns the numeric rank 0..3 used for ordering comparisons.
func (l Level) Rank() int { return int(l) }

// AtLeast reports whether l grants at least as much autonomy as min.
func (l Level) AtLeast(min Level) bool { return l >= min }

// ParseLevel accepts "L0".."L3" (case-insensitive) or a bare digit.
func ParseLevel(s string) (Level, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "L")
	switch v {
	case "0":
		return L0, nil
	case "1":
		return L1, nil
	case "2":
		return L2, nil
	case "3":
		return L3, nil
	}
	return L0, fmt.Errorf("unknown autonomy level %q", s)
}
