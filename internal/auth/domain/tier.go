package domain

import (
	"maps"
	"time"
)

const (
	TierFree       = "free"
	TierPaid       = "paid"
	TierEnterprise = "enterprise"
)

// Features maps a feature name to a capacity (int) or a flag (bool).
type Features map[string]any

// Tier is a user's entitlement bundle.
type Tier struct {
	ID         string
	UserID     string
	Name       string
	Features   Features // overrides only; see EffectiveFeatures
	ValidFrom  time.Time
	ValidUntil *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsActive reports whether the tier applies at now. A tier without an end
// date never lapses.
func (t Tier) IsActive(now time.Time) bool {
	return t.ValidUntil == nil || now.Before(*t.ValidUntil)
}

// DefaultFeatures returns the limits every user gets without a tier override.
func DefaultFeatures() Features {
	return Features{
		"scans_per_day":       50,
		"screener_filters":    3,
		"watchlist_size":      20,
		"saved_presets":       5,
		"api_calls_per_hour":  60,
		"export_csv":          true,
		"real_time_updates":   false,
		"advanced_indicators": false,
		"pattern_recognition": false,
		"backtesting":         false,
	}
}

// EnterpriseFeatures is granted to the bootstrap administrator.
func EnterpriseFeatures() Features {
	return Features{
		"scans_per_day":       1000,
		"screener_filters":    100,
		"watchlist_size":      500,
		"saved_presets":       50,
		"api_calls_per_hour":  10000,
		"export_csv":          true,
		"real_time_updates":   true,
		"advanced_indicators": true,
		"pattern_recognition": true,
		"backtesting":         true,
	}
}

// EffectiveFeatures merges the tier's overrides over the defaults, key by
// key. A nil or lapsed tier yields the defaults.
func EffectiveFeatures(t *Tier, now time.Time) Features {
	out := DefaultFeatures()
	if t != nil && t.IsActive(now) {
		maps.Copy(out, t.Features)
	}
	return out
}
