// Package store persists image dimensions and app settings in SQLite.
// Probed dimensions survive restarts so the first layout pass of a new
// session is already accurate for every image seen before.
package store

import (
	"database/sql"
	"image"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
)

type EventType int

const (
	FetchDimensions EventType = iota
	SaveDimension
	FetchSettings
	SaveSetting
)

type Request struct {
	Op      EventType
	ImageID string
	Size    image.Point
	Key     string
	Value   string
}

type Response struct {
	Op         EventType
	Dimensions map[string]image.Point // Image id -> intrinsic size
	Settings   map[string]string      // Key-value settings
	Err        error
}

type DB struct {
	conn         *sql.DB
	RequestChan  chan Request
	ResponseChan chan Response
}

func NewDB() *DB {
	return &DB{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
	}
}

// Open initializes the database connection and schema
func (d *DB) Open(dbPath string) error {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	// Performance Tuning
	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		return err
	}

	// Schema - Dimensions table
	query := `
	CREATE TABLE IF NOT EXISTS dimensions (
		image_id TEXT PRIMARY KEY,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(query); err != nil {
		return err
	}

	// Schema - Settings table
	settingsQuery := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(settingsQuery); err != nil {
		return err
	}

	d.conn = db
	return nil
}

func (d *DB) Start() {
	for req := range d.RequestChan {
		switch req.Op {
		case FetchDimensions:
			d.handleFetchDimensions()
		case SaveDimension:
			d.handleSaveDimension(req.ImageID, req.Size)
		case FetchSettings:
			d.handleFetchSettings()
		case SaveSetting:
			d.handleSaveSetting(req.Key, req.Value)
		}
	}
}

func (d *DB) handleFetchDimensions() {
	rows, err := d.conn.Query("SELECT image_id, width, height FROM dimensions")
	if err != nil {
		d.ResponseChan <- Response{Op: FetchDimensions, Err: err}
		return
	}
	defer rows.Close()

	dims := make(map[string]image.Point)
	for rows.Next() {
		var id string
		var w, h int
		if err := rows.Scan(&id, &w, &h); err == nil && w > 0 && h > 0 {
			dims[id] = image.Point{X: w, Y: h}
		}
	}

	d.ResponseChan <- Response{Op: FetchDimensions, Dimensions: dims}
}

func (d *DB) handleSaveDimension(id string, size image.Point) {
	if id == "" || size.X <= 0 || size.Y <= 0 {
		return
	}
	// Dimensions are intrinsic and immutable; first writer wins
	_, err := d.conn.Exec(
		"INSERT OR IGNORE INTO dimensions (image_id, width, height) VALUES (?, ?, ?)",
		id, size.X, size.Y)
	if err != nil {
		debug.Log(debug.STORE, "save dimension: %v", err)
	}
}

func (d *DB) handleFetchSettings() {
	rows, err := d.conn.Query("SELECT key, value FROM settings")
	if err != nil {
		d.ResponseChan <- Response{Op: FetchSettings, Err: err}
		return
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err == nil {
			settings[key] = value
		}
	}

	d.ResponseChan <- Response{Op: FetchSettings, Settings: settings}
}

func (d *DB) handleSaveSetting(key, value string) {
	// Use INSERT OR REPLACE to upsert the setting
	_, err := d.conn.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		debug.Log(debug.STORE, "save setting: %v", err)
	}
	// Trigger a fetch to sync settings
	d.handleFetchSettings()
}

func (d *DB) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}
