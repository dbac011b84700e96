package imagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
)

// diskCache persists fetched image bytes across sessions, keyed by a hash
// of the URL. Lookups hit an in-memory key set seeded by a startup scan,
// so the filesystem is only touched on actual reads and writes.
type diskCache struct {
	dir string

	mu   sync.RWMutex
	keys map[string]struct{}
}

func newDiskCache(dir string) *diskCache {
	return &diskCache{
		dir:  dir,
		keys: make(map[string]struct{}),
	}
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// scan walks the cache directory and seeds the key set. Returns the number
// of entries found.
func (d *diskCache) scan() (int, error) {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return 0, err
	}

	conf := fastwalk.Config{
		Follow: false,
	}
	count := 0
	err := fastwalk.Walk(&conf, d.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if entry.IsDir() {
			if path != d.dir {
				return filepath.SkipDir
			}
			return nil
		}
		d.mu.Lock()
		d.keys[entry.Name()] = struct{}{}
		d.mu.Unlock()
		count++
		return nil
	})
	return count, err
}

func (d *diskCache) has(url string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.keys[cacheKey(url)]
	return ok
}

func (d *diskCache) read(url string) ([]byte, bool) {
	key := cacheKey(url)
	d.mu.RLock()
	_, ok := d.keys[key]
	d.mu.RUnlock()
	if !ok {
		return nil, false
	}
	data, err := os.ReadFile(filepath.Join(d.dir, key))
	if err != nil {
		// Stale key, likely removed out from under us
		d.mu.Lock()
		delete(d.keys, key)
		d.mu.Unlock()
		return nil, false
	}
	return data, true
}

func (d *diskCache) write(url string, data []byte) {
	key := cacheKey(url)
	path := filepath.Join(d.dir, key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		debug.Log(debug.CACHE, "disk write failed: %v", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		debug.Log(debug.CACHE, "disk rename failed: %v", err)
		return
	}
	d.mu.Lock()
	d.keys[key] = struct{}{}
	d.mu.Unlock()
}
