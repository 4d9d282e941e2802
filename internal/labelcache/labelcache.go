// Package labelcache keeps per-course snapshots of listing row labels.
//
// The snapshot command captures what the live listing shows; the check
// command then dry-runs a plan against that capture without a browser.
// Captures are JSON documents in a diskv store keyed by course slug.
package labelcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"d2ldates/internal/listing"
	"d2ldates/internal/normalize"
)

// ErrNoCapture indicates no snapshot exists for the course.
var ErrNoCapture = errors.New("no cached labels for course")

// Capture is one saved snapshot of a course listing.
type Capture struct {
	Course     string    `json:"course"`
	URL        string    `json:"url,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
	Labels     []string  `json:"labels"`
}

// Rows exposes the captured labels as listing rows, so a Capture can stand
// in for the live document during offline resolution.
func (c Capture) Rows(ctx context.Context) ([]listing.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := make([]listing.Row, 0, len(c.Labels))
	for i, label := range c.Labels {
		rows = append(rows, listing.Row{Ordinal: i, Label: label})
	}
	return rows, nil
}

// Cache is the on-disk capture store.
type Cache struct {
	d *diskv.Diskv
}

// Open creates a cache rooted under dataDir.
func Open(dataDir string) *Cache {
	return &Cache{d: diskv.New(diskv.Options{
		BasePath:     filepath.Join(dataDir, "labels"),
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 1024 * 1024, // 1MB
	})}
}

func captureKey(course string) string {
	slug := normalize.SlugKey(course)
	if slug == "" {
		slug = "default"
	}
	return slug + ".json"
}

// Put stores a capture, stamping CapturedAt when unset.
func (c *Cache) Put(snap Capture) error {
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal capture: %w", err)
	}
	if err := c.d.Write(captureKey(snap.Course), data); err != nil {
		return fmt.Errorf("write capture for %q: %w", snap.Course, err)
	}
	return nil
}

// Get loads the capture for a course.
func (c *Cache) Get(course string) (Capture, error) {
	key := captureKey(course)
	if !c.d.Has(key) {
		return Capture{}, fmt.Errorf("%w: %s", ErrNoCapture, course)
	}
	data, err := c.d.Read(key)
	if err != nil {
		return Capture{}, fmt.Errorf("read capture for %q: %w", course, err)
	}
	var snap Capture
	if err := json.Unmarshal(data, &snap); err != nil {
		return Capture{}, fmt.Errorf("decode capture for %q: %w", course, err)
	}
	return snap, nil
}

// Delete removes a course's capture. Missing captures are not an error.
func (c *Cache) Delete(course string) error {
	key := captureKey(course)
	if !c.d.Has(key) {
		return nil
	}
	return c.d.Erase(key)
}

// Courses lists the courses with captures, sorted by name.
func (c *Cache) Courses(ctx context.Context) ([]string, error) {
	var names []string
	for key := range c.d.Keys(ctx.Done()) {
		data, err := c.d.Read(key)
		if err != nil {
			continue
		}
		var snap Capture
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		names = append(names, snap.Course)
	}
	sort.Strings(names)
	return names, ctx.Err()
}
