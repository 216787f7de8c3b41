package connector

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache keeps one JSON document per fingerprint in a directory, so
// cached responses survive restarts and can be shared between processes.
type FileCache struct {
	dir string
	now func() time.Time
}

type fileEntry struct {
	Fingerprint int32     `json:"fingerprint"`
	StoredAt    time.Time `json:"stored_at"`
	OK          bool      `json:"ok"`
	Status      int       `json:"status"`
	StatusText  string    `json:"status_text"`
	Raw         []byte    `json:"raw"`
}

// NewFileCache creates dir if needed and returns a cache rooted there.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("file cache: empty directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

func (fc *FileCache) path(fp int32) string {
	return filepath.Join(fc.dir, fmt.Sprintf("%d.json", fp))
}

// Lookup implements Cache.
func (fc *FileCache) Lookup(fp int32, ttl time.Duration) (*Response, bool) {
	if ttl <= 0 {
		return nil, false
	}
	data, err := os.ReadFile(fc.path(fp))
	if err != nil {
		return nil, false
	}

	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.Fingerprint != fp {
		return nil, false
	}

	if fc.now().Sub(entry.StoredAt) >= ttl {
		_ = os.Remove(fc.path(fp))
		return nil, false
	}

	raw := entry.Raw
	if raw == nil {
		raw = []byte{}
	}
	return &Response{
		OK:         entry.OK,
		Status:     entry.Status,
		StatusText: entry.StatusText,
		Body:       decodeBody(raw),
		Raw:        raw,
	}, true
}

// Store implements Cache. Writes go to a temporary file that is renamed into
// place; failures leave the previous entry untouched.
func (fc *FileCache) Store(fp int32, resp *Response) {
	if resp == nil {
		return
	}
	entry := fileEntry{
		Fingerprint: fp,
		StoredAt:    fc.now(),
		OK:          resp.OK,
		Status:      resp.Status,
		StatusText:  resp.StatusText,
		Raw:         resp.Raw,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return
	}

	path := fc.path(fp)
	tmpPath := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
	}
}

// Delete implements Cache.
func (fc *FileCache) Delete(fp int32) {
	_ = os.Remove(fc.path(fp))
}

// Clear implements Cache.
func (fc *FileCache) Clear() {
	for _, name := range fc.entries() {
		_ = os.Remove(filepath.Join(fc.dir, name))
	}
}

// Len implements Cache.
func (fc *FileCache) Len() int {
	return len(fc.entries())
}

func (fc *FileCache) entries() []string {
	dirEntries, err := os.ReadDir(fc.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		names = append(names, de.Name())
	}
	return names
}
