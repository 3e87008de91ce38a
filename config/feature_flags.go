package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages runtime feature toggles.
// Features can be limited to specific career groups, so a notification
// can be piloted with one cohort before it goes out to everyone.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// TargetGroups limits the feature to these career group IDs.
	// Empty means all groups.
	TargetGroups []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	CareerGroupID string
}

// Predefined feature flag names.
const (
	// === Notifications ===
	FeatureNotifyDeadlines    = "notify.deadlines"     // 7-day and 1-day deadline reminders
	FeatureNotifyLIADecisions = "notify.lia_decisions" // LIA approved / rejected
	FeatureNotifyMilestones   = "notify.milestones"    // Milestone completed

	// === Progression ===
	FeatureStrictPhaseOrder = "strict_phase_order" // Reject backward phase moves instead of flagging them
)

// LoadFeatureFlags builds flags from defaults, then toggles (YAML "features:"
// block), then FEATURE_* environment variables.
func LoadFeatureFlags(toggles map[string]bool) *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()

	for name, enabled := range toggles {
		if f, ok := ff.features[name]; ok {
			f.Enabled = enabled
		}
	}

	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureNotifyDeadlines] = &Feature{
		Name:        FeatureNotifyDeadlines,
		Description: "Send deadline reminders 7 days and 1 day before a phase deadline",
		Enabled:     true,
	}
	ff.features[FeatureNotifyLIADecisions] = &Feature{
		Name:        FeatureNotifyLIADecisions,
		Description: "Announce approved and rejected LIA placements",
		Enabled:     true,
	}
	ff.features[FeatureNotifyMilestones] = &Feature{
		Name:        FeatureNotifyMilestones,
		Description: "Announce completed milestones with total progress",
		Enabled:     false,
	}
	ff.features[FeatureStrictPhaseOrder] = &Feature{
		Name:        FeatureStrictPhaseOrder,
		Description: "Reject backward phase transitions instead of flagging them",
		Enabled:     false,
	}
}

// loadFromEnvironment reads FEATURE_<NAME>=true|false and
// FEATURE_<NAME>_GROUPS=<id>,<id> overrides.
// Example: FEATURE_NOTIFY_MILESTONES=true
// Example: FEATURE_NOTIFY_MILESTONES_GROUPS=grp-fullstack-sthlm-24
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
		if val := os.Getenv(envKey + "_GROUPS"); val != "" {
			feature.TargetGroups = splitList(val)
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "notify.lia_decisions" -> "FEATURE_NOTIFY_LIA_DECISIONS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsEnabled checks if a feature is enabled for the given context.
// A nil context ignores group targeting.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || !feature.Enabled {
		return false
	}

	if len(feature.TargetGroups) > 0 && ctx != nil {
		for _, g := range feature.TargetGroups {
			if g == ctx.CareerGroupID {
				return true
			}
		}
		return false
	}
	return true
}

// EnableFeature enables a feature.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.set(featureName, true)
}

// DisableFeature disables a feature.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.set(featureName, false)
}

func (ff *FeatureFlags) set(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return &FeatureFlagError{Feature: featureName, Message: "unknown feature"}
	}
	feature.Enabled = enabled
	return nil
}

// EnabledNames returns the sorted names of enabled features, for startup logs.
func (ff *FeatureFlags) EnabledNames() []string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	names := make([]string, 0, len(ff.features))
	for name, f := range ff.features {
		if f.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Feature string
	Message string
}

func (e *FeatureFlagError) Error() string {
	return fmt.Sprintf("feature flag %q: %s", e.Feature, e.Message)
}
