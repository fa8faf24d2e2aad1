// Package settings manages the dashboard's UI preferences (theme, dark mode,
// font size, screen lock and widget visibility) on top of a storage.PrefStore.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yard-planner/backend/internal/storage"
	"go.uber.org/zap"
)

// Preference keys, as the dashboard persisted them.
const (
	KeyTheme             = "selectedTheme"
	KeyDarkMode          = "darkMode"
	KeyFontSize          = "selectedFontSize"
	KeyLockEnabled       = "lock_enabled"
	KeyInactivityTimeout = "inactivity_timeout"
	KeyPrefs             = "prefs"
)

// DarkMode is "light", "dark" or "system". System mode is stored as an
// absent darkMode key.
type DarkMode string

const (
	DarkModeLight  DarkMode = "light"
	DarkModeDark   DarkMode = "dark"
	DarkModeSystem DarkMode = "system"
)

// FontSize keys.
const (
	FontSmall   = "small"
	FontDefault = "default"
	FontLarge   = "large"
	FontXLarge  = "xlarge"
)

const (
	DefaultInactivityMinutes = 5
	MaxInactivityMinutes     = 240
)

var (
	ErrUnknownFontSize = errors.New("unknown font size")
	ErrUnknownDarkMode = errors.New("unknown dark mode")
	ErrInvalidTimeout  = errors.New("inactivity timeout must be between 1 and 240 minutes")
)

var fontScales = map[string]map[string]string{
	FontDefault: {
		"--font-size":        "10px",
		"--font-size-medium": "12px",
		"--font-size-large":  "14px",
		"--font-size-larger": "16px",
	},
	FontSmall: {
		"--font-size":        "8px",
		"--font-size-medium": "10px",
		"--font-size-large":  "12px",
		"--font-size-larger": "14px",
	},
	FontLarge: {
		"--font-size":        "12px",
		"--font-size-medium": "14px",
		"--font-size-large":  "16px",
		"--font-size-larger": "18px",
	},
	FontXLarge: {
		"--font-size":        "14px",
		"--font-size-medium": "16px",
		"--font-size-large":  "18px",
		"--font-size-larger": "20px",
	},
}

// FontScale returns the CSS variables for a font size key.
func FontScale(size string) (map[string]string, error) {
	scale, ok := fontScales[size]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFontSize, size)
	}
	out := make(map[string]string, len(scale))
	for k, v := range scale {
		out[k] = v
	}
	return out, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// SanitizeTheme turns a theme label into a class name: "Theme One" -> "theme-one".
func SanitizeTheme(theme string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(theme)), "-")
}

// Settings is the full preference set.
type Settings struct {
	Theme                    string          `json:"theme"`
	DarkMode                 DarkMode        `json:"darkMode"`
	FontSize                 string          `json:"fontSize"`
	LockEnabled              bool            `json:"lockEnabled"`
	InactivityTimeoutMinutes int             `json:"inactivityTimeoutMinutes"`
	Preferences              map[string]bool `json:"preferences"`
}

// Defaults returns the settings of a fresh install.
func Defaults() Settings {
	return Settings{
		DarkMode:                 DarkModeSystem,
		FontSize:                 FontDefault,
		InactivityTimeoutMinutes: DefaultInactivityMinutes,
		Preferences:              map[string]bool{},
	}
}

// Validate checks enumerated fields.
func (s Settings) Validate() error {
	switch s.DarkMode {
	case DarkModeLight, DarkModeDark, DarkModeSystem:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDarkMode, s.DarkMode)
	}
	if _, ok := fontScales[s.FontSize]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFontSize, s.FontSize)
	}
	if s.InactivityTimeoutMinutes < 1 || s.InactivityTimeoutMinutes > MaxInactivityMinutes {
		return ErrInvalidTimeout
	}
	return nil
}

// Patch is a partial update; nil fields are left unchanged. Preferences are
// merged key by key.
type Patch struct {
	Theme                    *string         `json:"theme,omitempty"`
	DarkMode                 *DarkMode       `json:"darkMode,omitempty"`
	FontSize                 *string         `json:"fontSize,omitempty"`
	LockEnabled              *bool           `json:"lockEnabled,omitempty"`
	InactivityTimeoutMinutes *int            `json:"inactivityTimeoutMinutes,omitempty"`
	Preferences              map[string]bool `json:"preferences,omitempty"`
}

func (p Patch) apply(s Settings) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.DarkMode != nil {
		s.DarkMode = *p.DarkMode
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.LockEnabled != nil {
		s.LockEnabled = *p.LockEnabled
	}
	if p.InactivityTimeoutMinutes != nil {
		s.InactivityTimeoutMinutes = *p.InactivityTimeoutMinutes
	}
	if len(p.Preferences) > 0 {
		merged := make(map[string]bool, len(s.Preferences)+len(p.Preferences))
		for k, v := range s.Preferences {
			merged[k] = v
		}
		for k, v := range p.Preferences {
			merged[k] = v
		}
		s.Preferences = merged
	}
	return s
}

// Service reads and writes Settings through a PrefStore.
type Service struct {
	store storage.PrefStore
	log   *zap.Logger
}

// NewService creates a settings service.
func NewService(store storage.PrefStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// Load reads the stored settings, falling back to defaults for missing or
// malformed values.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	raw, err := s.store.All(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("loading settings: %w", err)
	}

	out := Defaults()
	if v, ok := raw[KeyTheme]; ok {
		out.Theme = SanitizeTheme(v)
	}
	switch raw[KeyDarkMode] {
	case "true":
		out.DarkMode = DarkModeDark
	case "false":
		out.DarkMode = DarkModeLight
	}
	if v, ok := raw[KeyFontSize]; ok {
		if _, known := fontScales[v]; known {
			out.FontSize = v
		} else {
			s.log.Warn("ignoring unknown stored font size", zap.String("value", v))
		}
	}
	out.LockEnabled = raw[KeyLockEnabled] == "true"
	if v, ok := raw[KeyInactivityTimeout]; ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= MaxInactivityMinutes {
			out.InactivityTimeoutMinutes = n
		} else {
			s.log.Warn("ignoring invalid stored inactivity timeout", zap.String("value", v))
		}
	}
	if v, ok := raw[KeyPrefs]; ok && v != "" {
		prefs := map[string]bool{}
		if err := json.Unmarshal([]byte(v), &prefs); err != nil {
			s.log.Warn("ignoring malformed stored prefs", zap.Error(err))
		} else {
			out.Preferences = prefs
		}
	}
	return out, nil
}

// Save validates and stores the full settings.
func (s *Service) Save(ctx context.Context, in Settings) (Settings, error) {
	in.Theme = SanitizeTheme(in.Theme)
	if in.Preferences == nil {
		in.Preferences = map[string]bool{}
	}
	if err := in.Validate(); err != nil {
		return Settings{}, err
	}

	prefs, err := json.Marshal(in.Preferences)
	if err != nil {
		return Settings{}, fmt.Errorf("encoding prefs: %w", err)
	}

	writes := map[string]string{
		KeyFontSize:          in.FontSize,
		KeyLockEnabled:       strconv.FormatBool(in.LockEnabled),
		KeyInactivityTimeout: strconv.Itoa(in.InactivityTimeoutMinutes),
		KeyPrefs:             string(prefs),
	}
	if in.Theme != "" {
		writes[KeyTheme] = in.Theme
	} else if err := s.store.Delete(ctx, KeyTheme); err != nil {
		return Settings{}, fmt.Errorf("clearing theme: %w", err)
	}
	switch in.DarkMode {
	case DarkModeDark:
		writes[KeyDarkMode] = "true"
	case DarkModeLight:
		writes[KeyDarkMode] = "false"
	default:
		if err := s.store.Delete(ctx, KeyDarkMode); err != nil {
			return Settings{}, fmt.Errorf("clearing dark mode: %w", err)
		}
	}

	for k, v := range writes {
		if err := s.store.Set(ctx, k, v); err != nil {
			return Settings{}, fmt.Errorf("saving %s: %w", k, err)
		}
	}
	s.log.Debug("settings saved",
		zap.String("theme", in.Theme),
		zap.String("darkMode", string(in.DarkMode)),
		zap.String("fontSize", in.FontSize))
	return in, nil
}

// Update applies a patch on top of the stored settings.
func (s *Service) Update(ctx context.Context, p Patch) (Settings, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	return s.Save(ctx, p.apply(current))
}
