package resolve

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chazu/zfight/pkg/geom"
)

// FixMethod selects the corrective transform applied to conflicting boxes.
type FixMethod int

const (
	FixInflateSecond FixMethod = iota // inflate only the second box of each pair
	FixInflateBoth                    // inflate both boxes of each pair
	FixInflateAll                     // same strategy as FixInflateBoth
	FixSeparate                       // translate the second box out along the deepest axis
)

func (m FixMethod) String() string {
	switch m {
	case FixInflateSecond:
		return "inflate-second"
	case FixInflateBoth:
		return "inflate-both"
	case FixInflateAll:
		return "inflate-all"
	case FixSeparate:
		return "separate"
	default:
		return fmt.Sprintf("FixMethod(%d)", int(m))
	}
}

func (m FixMethod) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *FixMethod) UnmarshalText(b []byte) error {
	v, err := ParseFixMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseFixMethod converts a method name to a FixMethod. Both the kebab-case
// names and the underscore forms used by older settings files are accepted.
func ParseFixMethod(s string) (FixMethod, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "inflate-second":
		return FixInflateSecond, nil
	case "inflate-both":
		return FixInflateBoth, nil
	case "inflate-all":
		return FixInflateAll, nil
	case "separate":
		return FixSeparate, nil
	}
	return 0, fmt.Errorf("unknown fix method %q, expected inflate-second, inflate-both, inflate-all or separate", s)
}

const (
	DefaultTolerance    = 0.001
	DefaultAmount       = 0.05
	DefaultRecheckDelay = 500 * time.Millisecond
)

// ErrInvalidSettings is wrapped by every error returned from Settings.Validate.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the resolver configuration. It is held by a Resolver and only
// changes through Resolver.UpdateSettings.
type Settings struct {
	// Tolerance is the distance below which two coordinates are coincident.
	// Zero or negative means exact coincidence.
	Tolerance float64
	// Amount is the inflate increment, and the extra gap left by separate.
	Amount float64
	Method FixMethod
	// AutoRecheck re-runs detection after a fix as a deferred task.
	AutoRecheck bool
	// DetectPolicy is used by Detect, FixPolicy by Fix.
	DetectPolicy geom.Policy
	FixPolicy    geom.Policy
	// RecheckDelay is how long timer-based schedulers wait before a recheck.
	RecheckDelay time.Duration
}

// DefaultSettings returns the settings a resolver starts with.
func DefaultSettings() Settings {
	return Settings{
		Tolerance:    DefaultTolerance,
		Amount:       DefaultAmount,
		Method:       FixSeparate,
		AutoRecheck:  true,
		DetectPolicy: geom.PolicyFaceAdjacency,
		FixPolicy:    geom.PolicyVolumetric,
		RecheckDelay: DefaultRecheckDelay,
	}
}

// Validate checks that the settings can drive a scan and a fix.
func (s Settings) Validate() error {
	if math.IsNaN(s.Tolerance) || math.IsInf(s.Tolerance, 0) {
		return fmt.Errorf("%w: tolerance must be finite, got %v", ErrInvalidSettings, s.Tolerance)
	}
	if math.IsNaN(s.Amount) || math.IsInf(s.Amount, 0) || s.Amount <= 0 {
		return fmt.Errorf("%w: amount must be a positive number, got %v", ErrInvalidSettings, s.Amount)
	}
	if s.Method < FixInflateSecond || s.Method > FixSeparate {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, s.Method)
	}
	for _, p := range []geom.Policy{s.DetectPolicy, s.FixPolicy} {
		if p != geom.PolicyVolumetric && p != geom.PolicyFaceAdjacency {
			return fmt.Errorf("%w: %s", ErrInvalidSettings, p)
		}
	}
	if s.RecheckDelay < 0 {
		return fmt.Errorf("%w: recheck delay must not be negative, got %s", ErrInvalidSettings, s.RecheckDelay)
	}
	return nil
}
