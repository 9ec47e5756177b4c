package configs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// ToolsConfig holds the domain knobs of the maintenance tools. Values come
// from built-in defaults, then the optional YAML file, then env overrides.
type ToolsConfig struct {
	StatusSlugs      []string `yaml:"status_slugs"`
	DraftBatchSize   int      `yaml:"draft_batch_size"`
	DeleteBatchSize  int      `yaml:"delete_batch_size"`
	MaxBatchSize     int      `yaml:"max_batch_size"`
	BatchTimeout     string   `yaml:"batch_timeout"`
	MediaMetaKeys    []string `yaml:"media_meta_keys"`
	OrphansStrict    bool     `yaml:"orphans_strict"`
	QueueTTL         string   `yaml:"queue_ttl"`
	CanonicalTTL     string   `yaml:"canonical_ttl"`
	DigestCron       string   `yaml:"digest_cron"`
	ChangePollCron   string   `yaml:"change_poll_cron"`
	ChangePollEnable bool     `yaml:"change_poll_enabled"`
}

var DefaultStatusSlugs = []string{
	"expired", "withdrawn", "cancelled", "contingent",
	"sold-inner-office", "sold-co-op-w/mbr", "sold-before-input", "sold-other",
}

func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		StatusSlugs:     append([]string(nil), DefaultStatusSlugs...),
		DraftBatchSize:  100,
		DeleteBatchSize: 25,
		MaxBatchSize:    500,
		BatchTimeout:    "60s",
		MediaMetaKeys: []string{
			"es_property_gallery",
			"es_property_documents",
			"es_property_floors_plans",
			"_product_image_gallery",
			"gallery",
		},
		QueueTTL:         "24h",
		CanonicalTTL:     "10m",
		DigestCron:       "@hourly",
		ChangePollCron:   "@every 5m",
		ChangePollEnable: true,
	}
}

// LoadYAMLTools reads a tools file on top of the defaults.
func LoadYAMLTools(path string) (ToolsConfig, error) {
	conf := DefaultToolsConfig()
	contents, err := os.ReadFile(path)
	if err != nil {
		return conf, fmt.Errorf("read tools config: %w", err)
	}
	if err := yaml.Unmarshal(contents, &conf); err != nil {
		return conf, fmt.Errorf("parse tools config: %w", err)
	}
	conf.normalize()
	return conf, nil
}

// LoadTools resolves the tools config from TOOLS_CONFIG (optional) and env overrides.
func LoadTools() ToolsConfig {
	conf := DefaultToolsConfig()
	if path := GetEnv("TOOLS_CONFIG"); path != "" {
		loaded, err := LoadYAMLTools(path)
		if err != nil {
			Logger.Sugar().Warnf("[CONFIG] %v, using defaults", err)
		} else {
			conf = loaded
		}
	}

	if v := GetEnv("STATUS_SLUGS"); v != "" {
		conf.StatusSlugs = SplitCSV(v)
	}
	if v := GetEnv("MEDIA_META_KEYS"); v != "" {
		conf.MediaMetaKeys = SplitCSV(v)
	}
	conf.DraftBatchSize = GetEnvInt("DRAFT_BATCH_SIZE", conf.DraftBatchSize)
	conf.DeleteBatchSize = GetEnvInt("DELETE_BATCH_SIZE", conf.DeleteBatchSize)
	conf.OrphansStrict = GetEnvBool("ORPHANS_STRICT", conf.OrphansStrict)
	conf.QueueTTL = GetEnv("NOTIFY_QUEUE_TTL", conf.QueueTTL)
	conf.DigestCron = GetEnv("NOTIFY_CRON", conf.DigestCron)
	conf.ChangePollCron = GetEnv("CHANGE_POLL_CRON", conf.ChangePollCron)
	conf.ChangePollEnable = GetEnvBool("CHANGE_POLL_ENABLED", conf.ChangePollEnable)
	conf.normalize()
	return conf
}

func (c *ToolsConfig) normalize() {
	def := DefaultToolsConfig()
	if len(c.StatusSlugs) == 0 {
		c.StatusSlugs = def.StatusSlugs
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = def.MaxBatchSize
	}
	if c.DraftBatchSize <= 0 {
		c.DraftBatchSize = def.DraftBatchSize
	}
	if c.DeleteBatchSize <= 0 {
		c.DeleteBatchSize = def.DeleteBatchSize
	}
	if c.DraftBatchSize > c.MaxBatchSize {
		c.DraftBatchSize = c.MaxBatchSize
	}
	if c.DeleteBatchSize > c.MaxBatchSize {
		c.DeleteBatchSize = c.MaxBatchSize
	}
}

func (c ToolsConfig) QueueTTLDuration() time.Duration {
	return parseDurationOr(c.QueueTTL, 24*time.Hour)
}

func (c ToolsConfig) CanonicalTTLDuration() time.Duration {
	return parseDurationOr(c.CanonicalTTL, 10*time.Minute)
}

func (c ToolsConfig) BatchTimeoutDuration() time.Duration {
	return parseDurationOr(c.BatchTimeout, 60*time.Second)
}

func parseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// SplitCSV splits a comma separated list, trimming blanks.
func SplitCSV(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
