package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/okian/crewrate/internal/config"
	"github.com/okian/crewrate/internal/domain/category"
	"github.com/okian/crewrate/internal/domain/profile"
	"github.com/okian/crewrate/internal/domain/scoring"
	"github.com/okian/crewrate/pkg/logger"
	"github.com/okian/crewrate/pkg/metrics"
)

// settingsKey is the settings table row holding live settings.
const settingsKey = "live_settings"

// Settings sources, used as a metrics label.
const (
	SourceAPI    = "api"
	SourceConfig = "config"
	SourceStore  = "store"
)

// Settings are the tunables that can change while the server runs.
type Settings struct {
	Categories []string           `json:"categories"`
	Thresholds scoring.Thresholds `json:"thresholds"`
	ScoreMin   float64            `json:"scoreMin"`
	ScoreMax   float64            `json:"scoreMax"`
}

// DefaultSettings mirrors profile.DefaultRules.
func DefaultSettings() Settings {
	return SettingsFromRules(profile.DefaultRules())
}

// SettingsFromRules converts profile rules into Settings.
func SettingsFromRules(r profile.Rules) Settings {
	return Settings{
		Categories: r.Categories.Names(),
		Thresholds: r.Thresholds,
		ScoreMin:   r.ScoreMin,
		ScoreMax:   r.ScoreMax,
	}
}

// SettingsFromConfig extracts the live settings from a loaded config.
func SettingsFromConfig(c *config.Config) Settings {
	return SettingsFromRules(c.Rules())
}

// Rules converts Settings into profile rules.
func (s Settings) Rules() profile.Rules {
	return profile.Rules{
		Categories: category.NewSet(s.Categories...),
		Thresholds: s.Thresholds,
		ScoreMin:   s.ScoreMin,
		ScoreMax:   s.ScoreMax,
	}
}

// Validate rejects settings the core cannot work with.
func (s Settings) Validate() error {
	if category.NewSet(s.Categories...).Len() == 0 {
		return Invalid("categories", "must name at least one category")
	}
	if err := s.Thresholds.Validate(); err != nil {
		return Invalid("thresholds", "are invalid: atRiskMax must be below topPerformerMin")
	}
	if math.IsNaN(s.ScoreMin) || math.IsNaN(s.ScoreMax) || math.IsInf(s.ScoreMin, 0) ||
		math.IsInf(s.ScoreMax, 0) || s.ScoreMin >= s.ScoreMax {
		return Invalid("scoreMin", "must be below scoreMax")
	}
	return nil
}

// normalized returns s with categories cleaned up.
func (s Settings) normalized() Settings {
	s.Categories = category.NewSet(s.Categories...).Names()
	return s
}

// Settings returns a copy of the live settings.
func (s *Service) Settings() Settings {
	st := *s.settings.Load()
	st.Categories = slices.Clone(st.Categories)
	return st
}

// rules returns the live profile rules.
func (s *Service) rules() profile.Rules {
	return s.Settings().Rules()
}

// ApplySettings validates and activates next without persisting it.
func (s *Service) ApplySettings(ctx context.Context, next Settings, source string) (Settings, error) {
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	next = next.normalized()
	s.settings.Store(&next)
	metrics.RecordSettingsUpdate(source)
	s.logger.Info(ctx, "settings applied",
		logger.String("source", source),
		logger.Any("categories", next.Categories),
		logger.Float64("topPerformerMin", next.Thresholds.TopPerformerMin),
		logger.Float64("atRiskMax", next.Thresholds.AtRiskMax),
	)
	return next, nil
}

// UpdateSettings validates, persists and activates next.
func (s *Service) UpdateSettings(ctx context.Context, next Settings) (Settings, error) {
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	raw, err := json.Marshal(next.normalized())
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := s.store.SaveSetting(ctx, settingsKey, string(raw)); err != nil {
		return Settings{}, storageErr(err)
	}
	return s.ApplySettings(ctx, next, SourceAPI)
}

// loadPersistedSettings activates settings saved by an earlier
// UpdateSettings. Broken rows are logged and ignored.
func (s *Service) loadPersistedSettings(ctx context.Context) error {
	raw, found, err := s.store.LoadSetting(ctx, settingsKey)
	if err != nil {
		return storageErr(err)
	}
	if !found {
		return nil
	}
	var stored Settings
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.logger.Warn(ctx, "ignoring unreadable stored settings", logger.Error(err))
		return nil
	}
	if _, err := s.ApplySettings(ctx, stored, SourceStore); err != nil {
		s.logger.Warn(ctx, "ignoring invalid stored settings", logger.Error(err))
	}
	return nil
}
