// Package autopilot turns raw tab state into cleanup and grouping
// recommendations, and optionally executes them.
package autopilot

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tabops/tabpilot/internal/store"
)

const settingsKey = "autopilot_settings"

// Settings controls the AutoPilot pipeline. The loaded value is always
// fully populated: stored fields overlay the defaults, so a partial
// snapshot from an older version never nulls anything out.
type Settings struct {
	StaleDaysThreshold  int  `json:"staleDaysThreshold"`
	AutoCloseStale      bool `json:"autoCloseStale"`
	AutoGroupByCategory bool `json:"autoGroupByCategory"`
	MemoryThresholdMB   int  `json:"memoryThresholdMB"`
	ExcludePinned       bool `json:"excludePinned"`
	ExcludeActive       bool `json:"excludeActive"`
}

// DefaultSettings returns the baseline configuration.
func DefaultSettings() Settings {
	return Settings{
		StaleDaysThreshold: 7,
		MemoryThresholdMB:  500,
		ExcludePinned:      true,
		ExcludeActive:      true,
	}
}

// LoadSettings reads settings from the store, merging stored fields
// over the defaults. A missing or corrupt snapshot yields defaults.
func LoadSettings(st *store.Store) (Settings, error) {
	s := DefaultSettings()
	if st == nil {
		return s, nil
	}

	raw, ok, err := st.Get(settingsKey)
	if err != nil {
		return s, err
	}
	if !ok {
		return s, nil
	}

	// Unmarshal onto the defaults: absent fields keep their default.
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return DefaultSettings(), nil
	}
	return s, nil
}

// SaveSettings persists the full settings snapshot.
func SaveSettings(st *store.Store, s Settings) error {
	if st == nil {
		return nil
	}
	return st.SetJSON(settingsKey, s)
}

// ApplySetting sets one field by its JSON name from a string value.
// Used by the settings CLI.
func ApplySetting(s *Settings, key, value string) error {
	switch key {
	case "staleDaysThreshold":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("staleDaysThreshold must be a non-negative integer")
		}
		s.StaleDaysThreshold = n
	case "memoryThresholdMB":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("memoryThresholdMB must be a non-negative integer")
		}
		s.MemoryThresholdMB = n
	case "autoCloseStale", "autoGroupByCategory", "excludePinned", "excludeActive":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false", key)
		}
		switch key {
		case "autoCloseStale":
			s.AutoCloseStale = b
		case "autoGroupByCategory":
			s.AutoGroupByCategory = b
		case "excludePinned":
			s.ExcludePinned = b
		case "excludeActive":
			s.ExcludeActive = b
		}
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
