package config

// Config represents a foundry.yaml configuration file.
// All values are optional and act as defaults for foundry deploy flags.
// CLI flags always override config values.
type Config struct {
	// DeployCLI is the deploy tool command name or path.
	DeployCLI string `yaml:"deploy_cli"`
	// DeltaCLI is the change-detection tool command name or path.
	DeltaCLI string `yaml:"delta_cli"`
	// APIVersion is forwarded to the deploy tool.
	APIVersion string `yaml:"api_version"`
	// SourceDir is the metadata source tree.
	SourceDir string `yaml:"source_dir"`
	// ManifestPath is the fixed relative path the delta tool writes to.
	ManifestPath string `yaml:"manifest_path"`
	// Revision is the reference revision for change detection.
	Revision string `yaml:"revision"`
	// CachePath stores the last raw deploy response.
	CachePath string `yaml:"cache_path"`
	// HistoryPath stores the deploy history log.
	HistoryPath string `yaml:"history_path"`
	// IgnoreConflicts forwards the tool's ignore-conflicts flag.
	IgnoreConflicts bool `yaml:"ignore_conflicts"`
	// Quiet suppresses the progress UI.
	Quiet bool `yaml:"quiet"`
	// WebhookURL, when set, receives deploy completion events via POST.
	WebhookURL string `yaml:"webhook_url"`
	// RedisURL, when set, receives deploy completion events via PUBLISH.
	RedisURL string `yaml:"redis_url"`
	// RedisChannel overrides the default pub/sub channel.
	RedisChannel string `yaml:"redis_channel"`
}

// Defaults returns the built-in configuration. Load starts from these;
// a missing config file is not an error.
func Defaults() Config {
	return Config{
		DeployCLI:    "mdt",
		DeltaCLI:     "mdt-delta",
		APIVersion:   "58.0",
		SourceDir:    "src",
		ManifestPath: "out/package-manifest.xml",
		Revision:     "HEAD",
		CachePath:    ".foundry/last-response.json",
		HistoryPath:  ".foundry/history.msgpack",
	}
}
