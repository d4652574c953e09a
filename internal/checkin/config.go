package checkin

import (
	"sort"
	"time"

	"github.com/nhle/pulse/internal/model"
)

// Config holds the tunable thresholds of the engine.
type Config struct {
	FollowUpAfter time.Duration
	SuppressFor   time.Duration

	InitialTimeout      time.Duration
	FollowUpTimeout     time.Duration
	ProgressTimeout     time.Duration
	AcknowledgedTimeout time.Duration
	QuestionTimeout     time.Duration

	ShowAllClear  bool
	AllClearEvery time.Duration

	ClearOnResolve bool

	// Categories restricts the engine to these keys. Empty means all.
	Categories []model.CategoryKey
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return ConfigFrom(model.DefaultAppConfig().CheckIn)
}

// ConfigFrom converts the file configuration.
func ConfigFrom(c model.CheckInConfig) Config {
	keys := make([]model.CategoryKey, 0, len(c.Categories))
	for _, k := range c.Categories {
		keys = append(keys, model.CategoryKey(k))
	}
	return Config{
		FollowUpAfter:       c.FollowUpAfter,
		SuppressFor:         c.SuppressFor,
		InitialTimeout:      c.InitialTimeout,
		FollowUpTimeout:     c.FollowUpTimeout,
		ProgressTimeout:     c.ProgressTimeout,
		AcknowledgedTimeout: c.AcknowledgedTimeout,
		QuestionTimeout:     c.QuestionTimeout,
		ShowAllClear:        c.ShowAllClear,
		AllClearEvery:       c.AllClearEvery,
		ClearOnResolve:      c.ClearOnResolve,
		Categories:          keys,
	}
}

// timeout returns how long stage stays visible without user action.
func (c Config) timeout(stage model.Stage) time.Duration {
	switch stage {
	case model.StageInitial:
		return c.InitialTimeout
	case model.StageFollowUp:
		return c.FollowUpTimeout
	case model.StageProgress:
		return c.ProgressTimeout
	case model.StageAcknowledged:
		return c.AcknowledgedTimeout
	case model.StageQuestion:
		return c.QuestionTimeout
	}
	return c.InitialTimeout
}

// enabled returns the set of category keys the engine considers.
func (c Config) enabled() map[model.CategoryKey]bool {
	set := make(map[model.CategoryKey]bool)
	if len(c.Categories) == 0 {
		for _, cat := range model.Categories {
			set[cat.Key] = true
		}
		return set
	}
	for _, k := range c.Categories {
		set[k] = true
	}
	return set
}

// ordered returns the enabled actionable categories by priority.
// Declaration order breaks ties.
func (c Config) ordered() []model.Category {
	enabled := c.enabled()
	var out []model.Category
	for _, cat := range model.Categories {
		if cat.Actionable && enabled[cat.Key] {
			out = append(out, cat)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}
