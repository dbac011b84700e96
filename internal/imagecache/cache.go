// Package imagecache provides a URL-keyed, deduplicating image loader.
//
// At most one network/decode task exists per URL at any time: callers racing
// to request the same URL share the same Task and observe completion at the
// same instant. Successful loads are memoized; failures are removed and may
// be retried. The cache is an injected service, one instance per application
// session, never ambient package state.
package imagecache

import (
	"container/list"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
)

// Options controls how a single preload behaves
type Options struct {
	// SkipDecode marks the task ready as soon as the bytes arrive, without
	// the explicit decode step. Used for off-screen warm-up where speed
	// matters more than paint-readiness. Anything swapped into a visible
	// layer must be preloaded with SkipDecode=false so it is fully
	// rasterized before it is shown.
	SkipDecode bool
}

// Task is one in-flight or completed load for a URL. Done is closed exactly
// once; after that Err, Image, Bytes and Size are safe to read.
type Task struct {
	URL string

	decode bool // this task produces a decoded image on success
	done   chan struct{}
	err    error
	img    image.Image // decoded, nil when the task skipped decoding
	data   []byte      // fetched bytes, nil on a pure cache hit
	size   image.Point // intrinsic pixel dimensions, zero if unknown
}

// Done returns a channel closed when the task completes (ready or failed)
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task error. Only valid after Done is closed.
func (t *Task) Err() error { return t.err }

// Image returns the decoded image, or nil if the task skipped decoding
// or failed. Only valid after Done is closed.
func (t *Task) Image() image.Image { return t.img }

// Bytes returns the fetched bytes, if the task kept them.
// Only valid after Done is closed.
func (t *Task) Bytes() []byte { return t.data }

// Size returns the intrinsic pixel dimensions, zero if unknown.
// Only valid after Done is closed.
func (t *Task) Size() image.Point { return t.size }

// Wait blocks until the task completes or the context is cancelled
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func completedTask(url string, img image.Image, data []byte, size image.Point) *Task {
	t := &Task{URL: url, img: img, data: data, size: size}
	t.done = make(chan struct{})
	close(t.done)
	return t
}

func failedTask(url string, err error) *Task {
	t := &Task{URL: url, err: err}
	t.done = make(chan struct{})
	close(t.done)
	return t
}

type decodedEntry struct {
	url     string
	img     image.Image
	size    image.Point
	element *list.Element
}

// CacheOptions configures a Cache instance
type CacheOptions struct {
	MaxDecoded int           // Max decoded images retained in memory
	DiskDir    string        // Disk byte-cache directory; empty disables it
	Timeout    time.Duration // Per-fetch HTTP timeout
}

// Cache deduplicates and memoizes image loads by URL
type Cache struct {
	mu       sync.Mutex
	inflight map[string]*Task            // URL -> in-flight task (dedup invariant)
	loaded   map[string]struct{}         // URLs known to have loaded successfully
	sizes    map[string]image.Point      // Intrinsic dimensions memoized per URL
	decoded  map[string]*decodedEntry    // Decoded image LRU
	lru      *list.List                  // Front = most recent
	maxSize  int

	httpClient *http.Client
	disk       *diskCache // nil when disk caching is disabled

	// Moving throughput estimate in KB/s, consulted by the viewport
	// scheduler for connection-aware lookahead.
	throughputKBps atomic.Int64
}

// New creates an image cache. If opts.DiskDir is set, previously fetched
// bytes found there count as loaded and are served without a refetch.
func New(opts CacheOptions) *Cache {
	if opts.MaxDecoded <= 0 {
		opts.MaxDecoded = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	c := &Cache{
		inflight: make(map[string]*Task),
		loaded:   make(map[string]struct{}),
		sizes:    make(map[string]image.Point),
		decoded:  make(map[string]*decodedEntry),
		lru:      list.New(),
		maxSize:  opts.MaxDecoded,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
	if opts.DiskDir != "" {
		c.disk = newDiskCache(opts.DiskDir)
		if n, err := c.disk.scan(); err != nil {
			debug.Log(debug.CACHE, "disk scan failed: %v", err)
		} else {
			debug.Log(debug.CACHE, "disk cache: %d entries at %s", n, opts.DiskDir)
		}
	}
	return c
}

// Preload fetches (and, unless opts.SkipDecode, decodes) the image at url.
//   - Already loaded: completes immediately.
//   - Already in flight: returns the existing task.
//   - Otherwise starts a new task. On failure the task is removed so the
//     URL can be retried; failures are never memoized.
func (c *Cache) Preload(ctx context.Context, url string, opts Options) *Task {
	if url == "" {
		return failedTask(url, fmt.Errorf("empty image URL"))
	}

	c.mu.Lock()
	// Decoded in memory and decode requested: instant hit
	if entry, ok := c.decoded[url]; ok && !opts.SkipDecode {
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()
		return completedTask(url, entry.img, nil, entry.size)
	}
	// Dedup: share the in-flight task. A decode-requesting caller joining a
	// skip-decode warm-up gets an upgraded task chained onto the byte fetch;
	// it becomes the task of record so later callers of either kind share it.
	if task, ok := c.inflight[url]; ok {
		if opts.SkipDecode || task.decode {
			c.mu.Unlock()
			return task
		}
		upgraded := &Task{URL: url, decode: true, done: make(chan struct{})}
		c.inflight[url] = upgraded
		c.mu.Unlock()
		go c.decodeAfter(ctx, task, upgraded)
		return upgraded
	}
	if _, ok := c.loaded[url]; ok && opts.SkipDecode {
		size := c.sizes[url]
		c.mu.Unlock()
		// Bytes already known loaded; serve from disk if available
		if c.disk != nil {
			if data, ok := c.disk.read(url); ok {
				return completedTask(url, nil, data, size)
			}
		}
		return completedTask(url, nil, nil, size)
	}

	task := &Task{URL: url, decode: !opts.SkipDecode, done: make(chan struct{})}
	c.inflight[url] = task
	c.mu.Unlock()

	go c.run(ctx, task, opts)
	return task
}

// Loaded reports whether url has completed a load in this session or is
// present in the disk cache. Consulted to skip redundant warm-ups.
func (c *Cache) Loaded(url string) bool {
	c.mu.Lock()
	_, ok := c.loaded[url]
	c.mu.Unlock()
	if ok {
		return true
	}
	return c.disk != nil && c.disk.has(url)
}

// DecodedImage returns the decoded image for url if it is resident in
// memory. Used to seed cell visuals synchronously on mount.
func (c *Cache) DecodedImage(url string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.decoded[url]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	return entry.img, true
}

// IntrinsicSize returns the memoized pixel dimensions for url, if any fetch
// of it ever completed in this session.
func (c *Cache) IntrinsicSize(url string) (image.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	size, ok := c.sizes[url]
	return size, ok
}

// ThroughputKBps returns the current moving download throughput estimate
func (c *Cache) ThroughputKBps() int {
	return int(c.throughputKBps.Load())
}

// run executes one load task to completion
func (c *Cache) run(ctx context.Context, task *Task, opts Options) {
	data, err := c.fetch(ctx, task.URL)
	if err != nil {
		c.fail(task, err)
		return
	}

	// Intrinsic size comes from the header probe; cheap even when the
	// full decode is skipped.
	size := image.Point{}
	if s, err := ProbeSize(data); err == nil {
		size = s
	}

	var img image.Image
	if !opts.SkipDecode {
		debug.Log(debug.CACHE_TASK, "decoding %s (%d bytes)", task.URL, len(data))
		img, err = decodeFull(data, maxDecodeEdge)
		if err != nil {
			c.fail(task, fmt.Errorf("decode %s: %w", task.URL, err))
			return
		}
	}

	if c.disk != nil {
		c.disk.write(task.URL, data)
	}

	c.mu.Lock()
	// The task may have been superseded by a decode upgrade; only the
	// current task of record clears the in-flight slot.
	if c.inflight[task.URL] == task {
		delete(c.inflight, task.URL)
	}
	c.loaded[task.URL] = struct{}{}
	if size != (image.Point{}) {
		c.sizes[task.URL] = size
	}
	if img != nil {
		c.putDecoded(task.URL, img, size)
	}
	c.mu.Unlock()

	task.data = data
	task.img = img
	task.size = size
	close(task.done)
	debug.Log(debug.CACHE_TASK, "ready %s decode=%v size=%v", task.URL, !opts.SkipDecode, size)
}

// decodeAfter completes upgraded once base has fetched its bytes, adding
// the decode step base skipped. base stays authoritative for the network
// fetch; only one request is ever in flight for the URL.
func (c *Cache) decodeAfter(ctx context.Context, base, upgraded *Task) {
	if err := base.Wait(ctx); err != nil {
		c.fail(upgraded, err)
		return
	}

	data := base.data
	if data == nil && c.disk != nil {
		if d, ok := c.disk.read(base.URL); ok {
			data = d
		}
	}
	if data == nil {
		c.fail(upgraded, fmt.Errorf("no bytes retained for %s", base.URL))
		return
	}

	img := base.img
	if img == nil {
		decoded, err := decodeFull(data, maxDecodeEdge)
		if err != nil {
			c.fail(upgraded, fmt.Errorf("decode %s: %w", base.URL, err))
			return
		}
		img = decoded
	}

	c.mu.Lock()
	if c.inflight[base.URL] == upgraded {
		delete(c.inflight, base.URL)
	}
	c.putDecoded(base.URL, img, base.size)
	c.mu.Unlock()

	upgraded.data = data
	upgraded.img = img
	upgraded.size = base.size
	close(upgraded.done)
	debug.Log(debug.CACHE_TASK, "decode upgrade ready %s", base.URL)
}

// fail completes a task with an error and removes it so the URL is retryable
func (c *Cache) fail(task *Task, err error) {
	c.mu.Lock()
	if c.inflight[task.URL] == task {
		delete(c.inflight, task.URL)
	}
	c.mu.Unlock()

	task.err = err
	close(task.done)
	debug.Log(debug.CACHE, "load failed: %s: %v", task.URL, err)
}

// fetch retrieves the raw bytes for url, serving from disk when possible
func (c *Cache) fetch(ctx context.Context, url string) ([]byte, error) {
	if c.disk != nil {
		if data, ok := c.disk.read(url); ok {
			debug.Log(debug.CACHE_TASK, "disk hit %s", url)
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status code %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	c.recordThroughput(len(data), time.Since(start))
	return data, nil
}

// recordThroughput folds one transfer into the moving throughput estimate
func (c *Cache) recordThroughput(byteCount int, elapsed time.Duration) {
	if elapsed <= 0 || byteCount <= 0 {
		return
	}
	kbps := int64(float64(byteCount) / 1024.0 / elapsed.Seconds())
	prev := c.throughputKBps.Load()
	if prev == 0 {
		c.throughputKBps.Store(kbps)
		return
	}
	// Equal-weight blend; smooth enough for a coarse fast/slow decision
	c.throughputKBps.Store((prev + kbps) / 2)
}

// putDecoded adds a decoded image to the LRU, evicting old entries.
// Caller must hold c.mu.
func (c *Cache) putDecoded(url string, img image.Image, size image.Point) {
	if entry, ok := c.decoded[url]; ok {
		entry.img = img
		entry.size = size
		c.lru.MoveToFront(entry.element)
		return
	}

	for c.lru.Len() >= c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		oldEntry := oldest.Value.(*decodedEntry)
		delete(c.decoded, oldEntry.url)
		c.lru.Remove(oldest)
		debug.Log(debug.CACHE_TASK, "evicted %s", oldEntry.url)
	}

	entry := &decodedEntry{url: url, img: img, size: size}
	entry.element = c.lru.PushFront(entry)
	c.decoded[url] = entry
}

// Clear drops decoded images and the session loaded set. Disk entries and
// in-flight tasks are untouched.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoded = make(map[string]*decodedEntry)
	c.lru = list.New()
	c.loaded = make(map[string]struct{})
	c.sizes = make(map[string]image.Point)
	debug.Log(debug.CACHE, "cleared")
}
