package config

import (
	"fmt"
	"strings"
)

// requiredRules enumerates every (kind, tier) pair the engine dispatches
// on; the table must define each exactly once.
var requiredRules = [][2]string{
	{"voted", "standard"},
	{"removed_vote", "first"},
	{"removed_vote", "second_or_more"},
	{"claim_bounty", "standard"},
}

// Validate checks the config for:
//   - Missing or duplicate (kind, tier) rule entries
//   - Deltas with the wrong sign for their kind
//   - Escalation ordering: the repeat-offense penalty must not be milder
//     than the first-offense penalty
func Validate(cfg *RuleConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	if cfg.Scoring.GraceWindowHours < 0 {
		return fmt.Errorf("config: grace_window_hours must not be negative")
	}

	seen := make(map[[2]string]int64)
	var errs []string
	for i, r := range cfg.Scoring.Rules {
		key := [2]string{r.Kind, r.Tier}
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Sprintf("rules[%d]: duplicate entry for (%s, %s)", i, r.Kind, r.Tier))
			continue
		}
		seen[key] = r.Delta

		switch r.Kind {
		case "voted", "claim_bounty":
			if r.Delta <= 0 {
				errs = append(errs, fmt.Sprintf("rules[%d]: %s reward must be positive, got %d", i, r.Kind, r.Delta))
			}
		case "removed_vote":
			if r.Delta >= 0 {
				errs = append(errs, fmt.Sprintf("rules[%d]: removed_vote penalty must be negative, got %d", i, r.Delta))
			}
		default:
			errs = append(errs, fmt.Sprintf("rules[%d]: unknown kind %q", i, r.Kind))
		}
	}

	for _, req := range requiredRules {
		if _, ok := seen[req]; !ok {
			errs = append(errs, fmt.Sprintf("missing rule for (%s, %s)", req[0], req[1]))
		}
	}

	first, okFirst := seen[[2]string{"removed_vote", "first"}]
	repeat, okRepeat := seen[[2]string{"removed_vote", "second_or_more"}]
	if okFirst && okRepeat && repeat >= first {
		errs = append(errs, fmt.Sprintf("second_or_more penalty (%d) must be harsher than first (%d)", repeat, first))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
