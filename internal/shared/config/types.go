package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=mysql sqlite"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == "sqlite" {
		return d.Database
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CancellationMode controls when a cancellation takes entitlement effect.
type CancellationMode string

const (
	CancellationImmediate CancellationMode = "immediate"
	CancellationPeriodEnd CancellationMode = "period_end"
)

// MembershipConfig carries the deployment-tunable business rules of the
// membership engine, as opposed to the tier catalog which is static.
type MembershipConfig struct {
	// BillingIntervalDays is the length of one paid billing period.
	BillingIntervalDays int `mapstructure:"billing_interval_days" validate:"min=1"`
	// GraceWindowDays is how long a past_due subscription keeps its tier
	// before it is forcibly cancelled.
	GraceWindowDays int `mapstructure:"grace_window_days" validate:"min=0"`
	// CancellationMode selects immediate or end-of-period cancellation.
	CancellationMode CancellationMode `mapstructure:"cancellation_mode" validate:"oneof=immediate period_end"`
	// CatalogPath optionally points at a YAML tier catalog file. Empty means
	// the built-in catalog.
	CatalogPath string `mapstructure:"catalog_path"`
	// Timezone is the business timezone used for free-tier usage periods.
	Timezone string `mapstructure:"timezone"`
}

func (m *MembershipConfig) BillingInterval() time.Duration {
	return time.Duration(m.BillingIntervalDays) * 24 * time.Hour
}

func (m *MembershipConfig) GraceWindow() time.Duration {
	return time.Duration(m.GraceWindowDays) * 24 * time.Hour
}
