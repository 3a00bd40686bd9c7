// Package config provides configuration management for the Kinship backend.
package config

import (
	"fmt"
	"time"
)

// Environment identifies the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the root configuration for the service.
type Config struct {
	Environment Environment `yaml:"environment"`

	Server   ServerConfig   `yaml:"server"`
	AWS      AWSConfig      `yaml:"aws"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Events   EventsConfig   `yaml:"events"`
	Trust    TrustWeights   `yaml:"trust"`
	Suggest  SuggestWeights `yaml:"suggest"`
	Features Features       `yaml:"features"`

	// LoadedFrom records which sources contributed, for startup logging.
	LoadedFrom []string `yaml:"-"`
}

// ServerConfig holds the HTTP server settings for local deployment.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
}

// AWSConfig holds DynamoDB table and EventBridge settings.
type AWSConfig struct {
	Region       string `yaml:"region"`
	TableName    string `yaml:"tableName"`
	MemberIndex  string `yaml:"memberIndex"`
	EventBusName string `yaml:"eventBusName"`
	EventSource  string `yaml:"eventSource"`
}

// SupabaseConfig holds the profile store connection settings.
type SupabaseConfig struct {
	URL          string `yaml:"url"`
	AnonKey      string `yaml:"anonKey"`
	MembersTable string `yaml:"membersTable"`
}

// EventsConfig tunes notification fan-out. Delivery is at-least-once; the
// retry knobs bound the redelivery backoff for a failing subscriber.
type EventsConfig struct {
	HubSendBuffer int           `yaml:"hubSendBuffer"`
	RetryInitial  time.Duration `yaml:"retryInitial"`
	RetryMax      time.Duration `yaml:"retryMax"`
}

// TrustWeights parameterizes the trust score formula. The shape of the
// formula is fixed; these are the operational tuning knobs.
type TrustWeights struct {
	Base          float64 `yaml:"base"`
	PerConnection float64 `yaml:"perConnection"`
	ConnectionCap float64 `yaml:"connectionCap"`
	PerGroup      float64 `yaml:"perGroup"`
	GroupCap      float64 `yaml:"groupCap"`
	PerCampaign   float64 `yaml:"perCampaign"`
	CampaignCap   float64 `yaml:"campaignCap"`
}

// SuggestWeights parameterizes suggestion scoring.
type SuggestWeights struct {
	Mutuals      float64 `yaml:"mutuals"`
	Skills       float64 `yaml:"skills"`
	Interests    float64 `yaml:"interests"`
	Location     float64 `yaml:"location"`
	DefaultLimit int     `yaml:"defaultLimit"`
	MaxLimit     int     `yaml:"maxLimit"`
}

// Features contains feature flags for the application.
type Features struct {
	EnableMetrics   bool `yaml:"enableMetrics"`
	EnableWebSocket bool `yaml:"enableWebSocket"`
	EnableHotReload bool `yaml:"enableHotReload"`
}

// DefaultConfig returns the in-code defaults, the lowest layer of the
// configuration hierarchy.
func DefaultConfig() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 20 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		AWS: AWSConfig{
			Region:       "us-east-1",
			TableName:    "kinship-dev",
			MemberIndex:  "MemberIndex",
			EventBusName: "default",
			EventSource:  "kinship-backend",
		},
		Supabase: SupabaseConfig{
			MembersTable: "members",
		},
		Events: EventsConfig{
			HubSendBuffer: 256,
			RetryInitial:  500 * time.Millisecond,
			RetryMax:      30 * time.Second,
		},
		Trust: TrustWeights{
			Base:          10,
			PerConnection: 2,
			ConnectionCap: 30,
			PerGroup:      3,
			GroupCap:      15,
			PerCampaign:   3,
			CampaignCap:   15,
		},
		Suggest: SuggestWeights{
			Mutuals:      3,
			Skills:       2,
			Interests:    1,
			Location:     2,
			DefaultLimit: 10,
			MaxLimit:     50,
		},
		Features: Features{
			EnableMetrics:   true,
			EnableWebSocket: true,
			EnableHotReload: false,
		},
	}
}

// Validate checks the configuration for values that would produce a broken
// service: negative weights would break trust-score monotonicity, and caps
// above the score bound would let a single signal dominate.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.AWS.TableName == "" {
		return fmt.Errorf("aws.tableName is required")
	}
	if err := c.Trust.Validate(); err != nil {
		return fmt.Errorf("trust weights: %w", err)
	}
	if err := c.Suggest.Validate(); err != nil {
		return fmt.Errorf("suggest weights: %w", err)
	}
	return nil
}

// Validate checks the trust weights.
func (w TrustWeights) Validate() error {
	for name, v := range map[string]float64{
		"base":          w.Base,
		"perConnection": w.PerConnection,
		"connectionCap": w.ConnectionCap,
		"perGroup":      w.PerGroup,
		"groupCap":      w.GroupCap,
		"perCampaign":   w.PerCampaign,
		"campaignCap":   w.CampaignCap,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", name, v)
		}
	}
	if w.Base > 100 {
		return fmt.Errorf("base must not exceed 100, got %v", w.Base)
	}
	for name, limit := range map[string]float64{
		"connectionCap": w.ConnectionCap,
		"groupCap":      w.GroupCap,
		"campaignCap":   w.CampaignCap,
	} {
		if limit > 100 {
			return fmt.Errorf("%s must not exceed 100, got %v", name, limit)
		}
	}
	return nil
}

// Validate checks the suggestion weights.
func (w SuggestWeights) Validate() error {
	for name, v := range map[string]float64{
		"mutuals":   w.Mutuals,
		"skills":    w.Skills,
		"interests": w.Interests,
		"location":  w.Location,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be non-negative, got %v", name, v)
		}
	}
	if w.DefaultLimit <= 0 {
		return fmt.Errorf("defaultLimit must be positive, got %d", w.DefaultLimit)
	}
	if w.MaxLimit < w.DefaultLimit {
		return fmt.Errorf("maxLimit (%d) must be >= defaultLimit (%d)", w.MaxLimit, w.DefaultLimit)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}
