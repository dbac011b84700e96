package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config holds all user-configurable settings loaded from config.json
type Config struct {
	API      APIConfig      `json:"api"`
	Grid     GridConfig     `json:"grid"`
	Bands    []BandConfig   `json:"bands"`
	Network  NetworkConfig  `json:"network"`
	Cache    CacheConfig    `json:"cache"`
	Resolver ResolverConfig `json:"resolver"`
	UI       UIConfig       `json:"ui"`
}

// APIConfig holds remote feed settings
type APIConfig struct {
	BaseURL        string `json:"baseUrl"`
	PerPage        int    `json:"perPage"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// GridConfig holds masonry grid geometry settings
type GridConfig struct {
	MinColumnWidth int `json:"minColumnWidth"` // Minimum column width in px before dropping a column
	Gap            int `json:"gap"`            // Gap between columns and rows in px
	BaseRowHeight  int `json:"baseRowHeight"`  // Height of one layout grid row in px
	MaxRowSpan     int `json:"maxRowSpan"`     // Hard ceiling on rows a single cell may span
}

// BandConfig describes one aspect-ratio band and its target display height range.
// Aspect ratio is width/height. MaxAspect == 0 means unbounded above.
// These are visual tuning values, not correctness requirements; they are kept
// in config so they can be adjusted without a rebuild.
type BandConfig struct {
	MinAspect float64 `json:"minAspect"`
	MaxAspect float64 `json:"maxAspect"`
	MinHeight float64 `json:"minHeight"`
	MaxHeight float64 `json:"maxHeight"`
}

// NetworkConfig holds connection-aware prefetch settings
type NetworkConfig struct {
	Profile           string  `json:"profile"`           // "auto" | "fast" | "slow"
	FastMarginScreens float64 `json:"fastMarginScreens"` // Lookahead margin in screen heights on fast connections
	SlowMarginScreens float64 `json:"slowMarginScreens"` // Lookahead margin on slow/metered connections
	FastThresholdKBps int     `json:"fastThresholdKBps"` // Measured throughput above this counts as fast (auto mode)
}

// CacheConfig holds image cache settings
type CacheConfig struct {
	Dir         string `json:"dir"`         // Disk byte-cache directory; empty = default
	DiskEnabled bool   `json:"diskEnabled"` // Persist fetched bytes to disk
	MaxDecoded  int    `json:"maxDecoded"`  // Max decoded images kept in memory (LRU)
}

// ResolverConfig holds dimension-probe settings
type ResolverConfig struct {
	PriorityCount int `json:"priorityCount"` // First N images probed immediately
	DeferDelayMs  int `json:"deferDelayMs"`  // Delay before probing the remainder
}

// UIConfig holds UI-related settings
type UIConfig struct {
	Theme            string `json:"theme"` // "light" or "dark"
	EagerCellCount   int    `json:"eagerCellCount"`   // Cells loaded at mount without waiting for visibility
	ResizeDebounceMs int    `json:"resizeDebounceMs"` // Resize coalescing window
	SwipeThresholdPx int    `json:"swipeThresholdPx"` // Minimum horizontal displacement to count as a swipe
}

// Manager handles loading, saving, and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: DefaultConfig(),
	}
}

// DefaultBands returns the default aspect-ratio band table.
// The pixel targets keep rows of very different orientations visually
// balanced in the same grid; gaps between bands resolve to the nearest band.
func DefaultBands() []BandConfig {
	return []BandConfig{
		{MinAspect: 2.0, MaxAspect: 0, MinHeight: 200, MaxHeight: 230},   // ultra-wide
		{MinAspect: 1.3, MaxAspect: 2.0, MinHeight: 230, MaxHeight: 275}, // standard landscape
		{MinAspect: 0.9, MaxAspect: 1.1, MinHeight: 240, MaxHeight: 260}, // square
		{MinAspect: 0.6, MaxAspect: 0.75, MinHeight: 400, MaxHeight: 600}, // standard portrait
		{MinAspect: 0, MaxAspect: 0.6, MinHeight: 600, MaxHeight: 750},   // tall portrait
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://api.photoapp.dev/v1",
			PerPage:        30,
			TimeoutSeconds: 30,
		},
		Grid: GridConfig{
			MinColumnWidth: 300,
			Gap:            24,
			BaseRowHeight:  5,
			MaxRowSpan:     150, // 150 * 5px = 750px, the tall-portrait ceiling
		},
		Bands: DefaultBands(),
		Network: NetworkConfig{
			Profile:           "auto",
			FastMarginScreens: 2.0,
			SlowMarginScreens: 0.5,
			FastThresholdKBps: 500,
		},
		Cache: CacheConfig{
			Dir:         "",
			DiskEnabled: true,
			MaxDecoded:  256,
		},
		Resolver: ResolverConfig{
			PriorityCount: 20,
			DeferDelayMs:  250,
		},
		UI: UIConfig{
			Theme:            "light",
			EagerCellCount:   12,
			ResizeDebounceMs: 150,
			SwipeThresholdPx: 50,
		},
	}
}

// ConfigPath returns the config file path: ~/.config/photoapp/config.json
// This is consistent across all platforms (Windows, macOS, Linux)
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "photoapp", "config.json")
}

// CacheDir returns the effective disk cache directory for image bytes
func (m *Manager) CacheDir() string {
	cfg := m.Get()
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, "photoapp", "images")
}

// Load reads the configuration from the config file
// If the file doesn't exist, creates it with defaults
// If parsing fails, stores the error and returns defaults
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.path = ConfigPath()
	m.parseErr = nil

	// Ensure config directory exists
	configDir := filepath.Dir(m.path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Printf("Config: failed to create directory %s: %v", configDir, err)
		return err
	}

	// Try to read existing config
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		// Create default config file
		log.Printf("Config: creating default config at %s", m.path)
		m.config = DefaultConfig()
		if saveErr := m.saveUnlocked(); saveErr != nil {
			log.Printf("Config: failed to save default config: %v", saveErr)
			return saveErr
		}
		return nil
	}
	if err != nil {
		log.Printf("Config: failed to read %s: %v", m.path, err)
		return err
	}

	// Parse JSON
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Store error for UI display, use defaults
		log.Printf("Config: JSON parse error: %v", err)
		m.parseErr = err
		m.config = DefaultConfig()
		return nil // Don't return error - we're using defaults
	}

	sanitize(&cfg)
	m.config = &cfg
	return nil
}

// sanitize clamps hand-edited values that would break layout math
func sanitize(cfg *Config) {
	if cfg.Grid.MinColumnWidth <= 0 {
		cfg.Grid.MinColumnWidth = 300
	}
	if cfg.Grid.Gap < 0 {
		cfg.Grid.Gap = 0
	}
	if cfg.Grid.BaseRowHeight <= 0 {
		cfg.Grid.BaseRowHeight = 5
	}
	if cfg.Grid.MaxRowSpan <= 0 {
		cfg.Grid.MaxRowSpan = 150
	}
	if len(cfg.Bands) == 0 {
		cfg.Bands = DefaultBands()
	}
	if cfg.API.PerPage <= 0 {
		cfg.API.PerPage = 30
	}
	if cfg.UI.EagerCellCount < 0 {
		cfg.UI.EagerCellCount = 0
	}
	if cfg.UI.ResizeDebounceMs <= 0 {
		cfg.UI.ResizeDebounceMs = 150
	}
	if cfg.UI.SwipeThresholdPx <= 0 {
		cfg.UI.SwipeThresholdPx = 50
	}
	if cfg.Resolver.PriorityCount <= 0 {
		cfg.Resolver.PriorityCount = 20
	}
	if cfg.Cache.MaxDecoded <= 0 {
		cfg.Cache.MaxDecoded = 256
	}
}

// saveUnlocked saves config without acquiring lock (caller must hold lock)
func (m *Manager) saveUnlocked() error {
	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Save writes the current configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return *DefaultConfig()
	}
	return *m.config
}

// ParseError returns the parsing error if config failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// SetTheme updates the theme setting
func (m *Manager) SetTheme(theme string) {
	m.mu.Lock()
	m.config.UI.Theme = theme
	m.mu.Unlock()
	m.Save()
}

// SetNetworkProfile updates the prefetch network profile
func (m *Manager) SetNetworkProfile(profile string) {
	m.mu.Lock()
	m.config.Network.Profile = profile
	m.mu.Unlock()
	m.Save()
}

// ResizeDebounce returns the resize coalescing window as a duration
func (m *Manager) ResizeDebounce() time.Duration {
	cfg := m.Get()
	return time.Duration(cfg.UI.ResizeDebounceMs) * time.Millisecond
}

// IsDarkMode returns true if dark mode is enabled
func (m *Manager) IsDarkMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.UI.Theme == "dark"
}

// GenerateConfig backs up existing config and creates a fresh default config
// Returns the backup path if a backup was created, or empty string if no existing config
func GenerateConfig() (backupPath string, err error) {
	configPath := ConfigPath()

	// Check if existing config exists
	if _, err := os.Stat(configPath); err == nil {
		// Create backup with timestamp
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(configPath), "config.backup."+timestamp+".json")

		// Read existing config
		data, err := os.ReadFile(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to read existing config: %w", err)
		}

		// Write backup
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write backup: %w", err)
		}
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return backupPath, fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write fresh default config
	defaultCfg := DefaultConfig()
	data, err := json.MarshalIndent(defaultCfg, "", "  ")
	if err != nil {
		return backupPath, fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return backupPath, fmt.Errorf("failed to write config: %w", err)
	}

	return backupPath, nil
}
