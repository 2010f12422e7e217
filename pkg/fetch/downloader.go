package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressCallback is called with download progress updates.
type ProgressCallback func(downloaded, total int64)

// Downloader handles native HTTP downloads.
type Downloader struct {
	client *http.Client
}

// NewDownloader creates a new downloader.
func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: 0, // No timeout for large downloads
		},
	}
}

// NewDownloaderWithClient creates a downloader using client.
func NewDownloaderWithClient(client *http.Client) *Downloader {
	return &Downloader{client: client}
}

// DownloadOptions configures a download.
type DownloadOptions struct {
	URL        string
	DestPath   string
	SHA256     string // Expected checksum (optional)
	OnProgress ProgressCallback
}

// Fetch implements Fetcher without checksum verification.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) error {
	return d.Download(ctx, DownloadOptions{URL: url, DestPath: dest})
}

// Download downloads a file with progress tracking.
// The file is written next to DestPath with a .downloading suffix and only
// renamed into place once fully written and verified.
func (d *Downloader) Download(ctx context.Context, opts DownloadOptions) error {
	destDir := filepath.Dir(opts.DestPath)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	tmpPath := opts.DestPath + ".downloading"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	renamed := false
	defer func() {
		out.Close()
		if !renamed {
			os.Remove(tmpPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	reader := &progressReader{
		reader:     resp.Body,
		total:      resp.ContentLength,
		onProgress: opts.OnProgress,
	}

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	// Close file before rename
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to flush download: %w", err)
	}

	if opts.SHA256 != "" {
		hash, err := FileSHA256(tmpPath)
		if err != nil {
			return fmt.Errorf("failed to calculate checksum: %w", err)
		}
		if hash != opts.SHA256 {
			return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, opts.SHA256, hash)
		}
	}

	if err := os.Rename(tmpPath, opts.DestPath); err != nil {
		return fmt.Errorf("failed to move file: %w", err)
	}
	renamed = true

	return nil
}

// FileSHA256 returns the hex SHA-256 digest of the file at path.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// progressReader wraps a reader and reports progress.
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	onProgress ProgressCallback
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.downloaded += int64(n)
	if r.onProgress != nil {
		r.onProgress(r.downloaded, r.total)
	}
	return n, err
}
