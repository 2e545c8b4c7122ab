package core

import (
	"fmt"
	"strings"
	"time"
)

type SyncConfig struct {
	DefaultMaxCount int `koanf:"default_max_count" mapstructure:"default_max_count"`
	MaxCountCap     int `koanf:"max_count_cap" mapstructure:"max_count_cap"`
	LookbackHours   int `koanf:"lookback_hours" mapstructure:"lookback_hours"`
}

type PushConfig struct {
	EventDurationMinutes int `koanf:"event_duration_minutes" mapstructure:"event_duration_minutes"`
}

type Config struct {
	ServiceName string     `koanf:"service_name" mapstructure:"service_name"`
	Sync        SyncConfig `koanf:"sync" mapstructure:"sync"`
	Push        PushConfig `koanf:"push" mapstructure:"push"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "meetsync",
		Sync: SyncConfig{
			DefaultMaxCount: 50,
			MaxCountCap:     100,
			LookbackHours:   24,
		},
		Push: PushConfig{
			EventDurationMinutes: 60,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Sync.DefaultMaxCount < 0 {
		return fmt.Errorf("core: sync.default_max_count must not be negative")
	}
	if c.Sync.MaxCountCap < 0 {
		return fmt.Errorf("core: sync.max_count_cap must not be negative")
	}
	if c.Sync.MaxCountCap > 0 && c.Sync.DefaultMaxCount > c.Sync.MaxCountCap {
		return fmt.Errorf("core: sync.default_max_count exceeds sync.max_count_cap")
	}
	if c.Sync.LookbackHours < 0 {
		return fmt.Errorf("core: sync.lookback_hours must not be negative")
	}
	if c.Push.EventDurationMinutes < 0 {
		return fmt.Errorf("core: push.event_duration_minutes must not be negative")
	}
	return nil
}

// syncLookback is how far behind now the event fetch window starts, so
// meetings already in progress still get their cancellations applied.
func (c Config) syncLookback() time.Duration {
	if c.Sync.LookbackHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Sync.LookbackHours) * time.Hour
}

func (c Config) pushEventDuration() time.Duration {
	if c.Push.EventDurationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Push.EventDurationMinutes) * time.Minute
}
