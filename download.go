package connector

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// Downloader receives the payload of requests configured with a download
// filename. It is fire-and-forget: the request succeeds whatever happens here.
type Downloader interface {
	Download(payload []byte, filename string)
}

// DownloaderFunc adapts a function to Downloader.
type DownloaderFunc func(payload []byte, filename string)

// Download calls f(payload, filename).
func (f DownloaderFunc) Download(payload []byte, filename string) {
	f(payload, filename)
}

// DirDownloader saves payloads as files in Dir. Only the base name of the
// suggested filename is used.
type DirDownloader struct {
	Dir    string
	Logger Logger
}

// NewDirDownloader returns a downloader writing into dir.
func NewDirDownloader(dir string) *DirDownloader {
	return &DirDownloader{Dir: dir}
}

// Download implements Downloader.
func (d *DirDownloader) Download(payload []byte, filename string) {
	if err := d.save(payload, filename); err != nil && d.Logger != nil {
		d.Logger.Error("Download failed", "filename", filename, "error", err.Error())
	}
}

func (d *DirDownloader) save(payload []byte, filename string) error {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid download filename %q", filename)
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(dir, name)
	tmpPath := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmpPath, payload, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
