package connector

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDirDownloaderSaves(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	d := NewDirDownloader(dir)

	d.Download([]byte("payload"), "report.csv")

	data, err := os.ReadFile(filepath.Join(dir, "report.csv"))
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("file contents = %q", data)
	}
}

func TestDirDownloaderStripsDirectories(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "downloads")
	d := NewDirDownloader(dir)

	d.Download([]byte("x"), "../../escape.txt")

	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err != nil {
		t.Errorf("expected file inside download dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "escape.txt")); err == nil {
		t.Error("download escaped its directory")
	}
}

func TestDirDownloaderLogsFailures(t *testing.T) {
	var buf syncBuffer
	d := &DirDownloader{Dir: t.TempDir(), Logger: NewZerologLogger(zerolog.New(&buf))}

	d.Download([]byte("x"), "")

	if !strings.Contains(buf.String(), "Download failed") {
		t.Errorf("expected failure to be logged, got %q", buf.String())
	}
}

func TestClientDownloadWritesFile(t *testing.T) {
	dir := t.TempDir()
	client := newTestClient(&countingTransport{body: "a,b\n1,2\n"}, WithDownloader(NewDirDownloader(dir)))

	resp, err := client.Get(context.Background(), testURL, &RequestConfig{Download: "table.csv"})
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !resp.Download {
		t.Error("expected download marker")
	}

	data, err := os.ReadFile(filepath.Join(dir, "table.csv"))
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("file contents = %q", data)
	}
}
