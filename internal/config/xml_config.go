// Package config provides XML-based configuration management for air-gapped deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yard-planner/backend/internal/yard"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"YardPlanner"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Yard layout and session policy
	Yard YardConfig `xml:"Yard"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory     string `xml:"DataDirectory"`
	SeedsDirectory    string `xml:"SeedsDirectory"`
	PreferencesDB     string `xml:"PreferencesDatabase"`
	EnablePersistence bool   `xml:"EnablePersistence"`
	// MaxSeedSizeKB bounds an uploaded fixture after decompression.
	MaxSeedSizeKB int `xml:"MaxSeedSizeKB"`
}

// YardConfig describes the yard grid and how sessions are kept.
type YardConfig struct {
	Rows     string `xml:"Rows"`
	Columns  int    `xml:"Columns"`
	Capacity int    `xml:"Capacity"`
	// RestrictedLongSlots is a comma list of locations closed to long units.
	// Empty means the last column of every row; "none" disables the rule.
	RestrictedLongSlots    string `xml:"RestrictedLongSlots"`
	Adjacency              string `xml:"Adjacency"`
	ToastMillis            int    `xml:"ToastMillis"`
	MaxSessions            int    `xml:"MaxSessions"`
	SessionTimeoutMinutes  int    `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int    `xml:"CleanupIntervalMinutes"`
	SeedFile               string `xml:"SeedFile"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	DuckDBThreads           int    `xml:"DuckDBThreads"`
	DuckDBMemoryLimit       string `xml:"DuckDBMemoryLimit"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "10M",
		},
		Storage: StorageConfig{
			DataDirectory:     "./data",
			SeedsDirectory:    "./data/seeds",
			PreferencesDB:     "./data/preferences.duckdb",
			EnablePersistence: true,
			MaxSeedSizeKB:     4096,
		},
		Yard: YardConfig{
			Rows:                   strings.Join(yard.DefaultRows, ","),
			Columns:                yard.DefaultColumns,
			Capacity:               yard.DefaultCapacity,
			Adjacency:              string(yard.AdjacencyLinear),
			ToastMillis:            2000,
			MaxSessions:            100,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			SeedFile:               "./data/defaults/data.json",
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			EnableRequestLogging:    true,
			DuckDBThreads:           1,
			DuckDBMemoryLimit:       "256MB",
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	header := []byte(xml.Header + "\n<!-- Yard Planner Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if seed := os.Getenv("YARD_SEED_FILE"); seed != "" {
		c.Yard.SeedFile = seed
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.SeedsDirectory,
		&c.Storage.PreferencesDB,
		&c.Yard.SeedFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// Validate rejects configurations the server cannot start with.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Yard.MaxSessions < 0 {
		return fmt.Errorf("max sessions must not be negative")
	}
	if c.Storage.MaxSeedSizeKB < 0 {
		return fmt.Errorf("max seed size must not be negative")
	}
	if c.Yard.ToastMillis < 0 {
		return fmt.Errorf("toast duration must not be negative")
	}
	layout := c.YardLayout()
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("invalid yard layout: %w", err)
	}
	return nil
}

// YardLayout converts the Yard section to an engine layout.
func (c *AppConfig) YardLayout() yard.Layout {
	rows := splitList(c.Yard.Rows)
	if len(rows) == 0 {
		rows = append([]string(nil), yard.DefaultRows...)
	}

	layout := yard.Layout{
		Rows:      rows,
		Columns:   c.Yard.Columns,
		Capacity:  c.Yard.Capacity,
		Adjacency: yard.Adjacency(strings.ToLower(strings.TrimSpace(c.Yard.Adjacency))),
	}
	if layout.Adjacency == "" {
		layout.Adjacency = yard.AdjacencyLinear
	}

	switch restricted := strings.TrimSpace(c.Yard.RestrictedLongSlots); strings.ToLower(restricted) {
	case "":
		layout.RestrictedLongSlots = yard.LastColumnSlots(rows, c.Yard.Columns)
	case "none":
		layout.RestrictedLongSlots = nil
	case "legacy":
		layout.RestrictedLongSlots = yard.LegacyRestrictedSlots()
	default:
		for _, loc := range splitList(restricted) {
			layout.RestrictedLongSlots = append(layout.RestrictedLongSlots, yard.NormalizeLocation(loc))
		}
	}
	return layout
}

// ToastDuration returns how long rejection toasts stay visible.
func (c *AppConfig) ToastDuration() time.Duration {
	return time.Duration(c.Yard.ToastMillis) * time.Millisecond
}

// SessionTimeout returns the idle age after which sessions are dropped.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Yard.SessionTimeoutMinutes) * time.Minute
}

// CleanupInterval returns how often idle sessions are swept.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Yard.CleanupIntervalMinutes) * time.Minute
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetSeedsDir returns the absolute seeds directory path
func (c *AppConfig) GetSeedsDir() string {
	return c.Storage.SeedsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.SeedsDirectory,
		filepath.Dir(c.Storage.PreferencesDB),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}
