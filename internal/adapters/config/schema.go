package config

import (
	"strings"
	"time"
)

// FileName is the name of the configuration file looked up from the working directory upwards.
const FileName = "tillsync.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TILLSYNC_"

// Settings is the complete client configuration.
type Settings struct {
	Backend  Backend           `yaml:"backend" envPrefix:"BACKEND_"`
	Snapshot Snapshot          `yaml:"snapshot" envPrefix:"SNAPSHOT_"`
	Log      Log               `yaml:"log" envPrefix:"LOG_"`
	Metrics  Metrics           `yaml:"metrics" envPrefix:"METRICS_"`
	Mutation Mutation          `yaml:"mutation" envPrefix:"MUTATION_"`
	Policies map[string]Policy `yaml:"policies" validate:"dive,keys,required,endkeys"`

	// Path is the file the settings were read from, empty when none was found.
	Path string `yaml:"-"`
}

// Backend holds the HTTP API location and the tenant the client acts for.
type Backend struct {
	BaseURL    string        `yaml:"base_url" env:"BASE_URL" validate:"required,url"`
	Token      string        `yaml:"token" env:"TOKEN"`
	BusinessID int64         `yaml:"business_id" env:"BUSINESS_ID" validate:"gt=0"`
	OutletID   int64         `yaml:"outlet_id" env:"OUTLET_ID" validate:"gt=0"`
	UserID     int64         `yaml:"user_id" env:"USER_ID" validate:"gte=0"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT" validate:"gt=0"`
}

// Snapshot configures the last-known-good store.
type Snapshot struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH" validate:"required_if=Enabled true"`
	// MaxAge drops snapshots older than this at startup.
	MaxAge time.Duration `yaml:"max_age" env:"MAX_AGE" validate:"gte=0"`
}

// Log configures the logger.
type Log struct {
	JSON bool `yaml:"json" env:"JSON"`
}

// Metrics configures the Prometheus endpoint. An empty address disables it.
type Metrics struct {
	Addr string `yaml:"addr" env:"ADDR" validate:"omitempty,hostname_port"`
}

// Mutation configures the mutation executor.
type Mutation struct {
	RevalidateWindow time.Duration `yaml:"revalidate_window" env:"REVALIDATE_WINDOW" validate:"gte=0"`
}

// Policy overrides the cache behavior of one resource. Zero fields keep the default.
type Policy struct {
	StaleTime    time.Duration `yaml:"stale_time" validate:"gte=0"`
	GCTime       time.Duration `yaml:"gc_time" validate:"gte=0"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"gte=0"`
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
	Retries      *int          `yaml:"retries" validate:"omitempty,gte=0,lte=10"`
}

// Resource classes share staleness defaults.
const (
	classLive    = "live"
	classSales   = "sales"
	classReports = "reports"
)

var classDefaults = map[string]Policy{
	classLive:    {StaleTime: 30 * time.Second, GCTime: 5 * time.Minute, PollInterval: 30 * time.Second},
	classSales:   {StaleTime: 2 * time.Minute, GCTime: 10 * time.Minute},
	classReports: {StaleTime: 5 * time.Minute, GCTime: 10 * time.Minute},
}

// resourceTimeouts are the per-request timeouts that differ from Backend.Timeout.
var resourceTimeouts = map[string]time.Duration{
	"shifts.active": 5 * time.Second,
	"tables":        20 * time.Second,
	"orders":        20 * time.Second,
}

// Defaults returns the settings used before the file and the environment are applied.
func Defaults() Settings {
	return Settings{
		Backend: Backend{
			Timeout: 10 * time.Second,
		},
		Snapshot: Snapshot{
			Enabled: true,
			Path:    "tillsync.db",
			MaxAge:  24 * time.Hour,
		},
		Mutation: Mutation{
			RevalidateWindow: 500 * time.Millisecond,
		},
	}
}

// PolicyFor resolves the effective policy of resource: class defaults, then the request timeout,
// then the configured override.
func (s *Settings) PolicyFor(resource string) Policy {
	p := classDefaults[classOf(resource)]
	p.Timeout = s.Backend.Timeout
	if t, ok := resourceTimeouts[resource]; ok {
		p.Timeout = t
	}

	o, ok := s.Policies[resource]
	if !ok {
		return p
	}
	if o.StaleTime > 0 {
		p.StaleTime = o.StaleTime
	}
	if o.GCTime > 0 {
		p.GCTime = o.GCTime
	}
	if o.PollInterval > 0 {
		p.PollInterval = o.PollInterval
	}
	if o.Timeout > 0 {
		p.Timeout = o.Timeout
	}
	if o.Retries != nil {
		r := *o.Retries
		p.Retries = &r
	}
	return p
}

func classOf(resource string) string {
	root, _, _ := strings.Cut(resource, ".")
	switch root {
	case "sales", "dashboard":
		return classSales
	case "reports", "finance":
		return classReports
	default:
		return classLive
	}
}
