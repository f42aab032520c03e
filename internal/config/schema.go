package config

// RuleConfig is the top-level YAML structure for the scoring rule table.
type RuleConfig struct {
	Version string      `yaml:"version"`
	Engine  EngineConf  `yaml:"engine"`
	Scoring ScoringConf `yaml:"scoring"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	EventWorkers   int `yaml:"event_workers"`
	QueueDepth     int `yaml:"queue_depth"`
	EventTimeoutMs int `yaml:"event_timeout_ms"`
}

// ScoringConf is the deploy-time rule table: one entry per (kind, tier)
// plus the removed-vote grace window.
type ScoringConf struct {
	GraceWindowHours int       `yaml:"grace_window_hours"`
	Rules            []RuleDef `yaml:"rules"`
}

// RuleDef maps an event kind and classification tier to a signed delta.
type RuleDef struct {
	Kind  string `yaml:"kind"`
	Tier  string `yaml:"tier"`
	Delta int64  `yaml:"delta"`
}
