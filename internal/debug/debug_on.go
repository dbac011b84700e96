//go:build debug

// Package debug provides a centralized, categorized debug logging system.
// Build with -tags debug to enable logging.
package debug

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// Enabled indicates whether debug logging is active
const Enabled = true

// Category represents a debug logging category
type Category string

const (
	// Core categories
	APP    Category = "APP"    // Application orchestration, navigation, state
	FEED   Category = "FEED"   // Remote API requests, pagination, categories
	CACHE  Category = "CACHE"  // Image cache tasks, dedup, disk cache
	LAYOUT Category = "LAYOUT" // Masonry layout computation
	SCHED  Category = "SCHED"  // Viewport scheduling, prefetch decisions
	STORE  Category = "STORE"  // Database operations, dimensions, settings
	UI     Category = "UI"     // UI events, rendering, modal

	// Detailed subcategories (use sparingly - can be verbose)
	CACHE_TASK Category = "CACHE_TASK" // Per-task state transitions (very verbose)
	UI_LAYOUT  Category = "UI_LAYOUT"  // Per-frame layout calculations (extremely verbose)
)

var (
	// enabledCategories controls which categories are active
	// By default, all main categories are enabled
	enabledCategories = map[Category]bool{
		APP:    true,
		FEED:   true,
		CACHE:  true,
		LAYOUT: true,
		SCHED:  true,
		STORE:  true,
		UI:     true,
		// Verbose categories disabled by default
		CACHE_TASK: false,
		UI_LAYOUT:  false,
	}
	categoryMu sync.RWMutex

	// Output destination
	logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
)

func init() {
	// Check environment variable for category overrides
	// Format: PHOTOAPP_DEBUG=APP,FEED,CACHE or PHOTOAPP_DEBUG=all or PHOTOAPP_DEBUG=none
	if env := os.Getenv("PHOTOAPP_DEBUG"); env != "" {
		categoryMu.Lock()
		defer categoryMu.Unlock()

		env = strings.ToUpper(env)
		switch env {
		case "ALL":
			for cat := range enabledCategories {
				enabledCategories[cat] = true
			}
		case "NONE":
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
		default:
			// Disable all first, then enable specified
			for cat := range enabledCategories {
				enabledCategories[cat] = false
			}
			for _, cat := range strings.Split(env, ",") {
				cat = strings.TrimSpace(cat)
				enabledCategories[Category(cat)] = true
			}
		}
	}
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	categoryMu.RLock()
	enabled := enabledCategories[cat]
	categoryMu.RUnlock()

	if !enabled {
		return
	}

	msg := fmt.Sprintf(format, args...)
	logger.Printf("[%s] %s", cat, msg)
}

// Enable enables a debug category
func Enable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = true
	categoryMu.Unlock()
}

// Disable disables a debug category
func Disable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = false
	categoryMu.Unlock()
}

// IsEnabled returns whether a category is enabled
func IsEnabled(cat Category) bool {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	return enabledCategories[cat]
}
