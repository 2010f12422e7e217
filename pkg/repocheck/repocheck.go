// Package repocheck guards the repository against accidentally committed
// large files.
package repocheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultMaxFileSize is the largest file size, in bytes, allowed in the tree.
const DefaultMaxFileSize = 987654

// ErrLargeFiles is matched by LargeFilesError.
var ErrLargeFiles = errors.New("unexpected large files")

// DefaultExclusions are root-relative directories never scanned.
var DefaultExclusions = []string{".git", ".jj", "cli/.venv", "_local"}

// GitRunner runs git in the repository. check=false tolerates non-zero exits.
type GitRunner interface {
	RunGit(ctx context.Context, args []string, check bool) ([]byte, error)
}

// LargeFilesError lists the offending paths.
type LargeFilesError struct {
	Paths []string
}

func (e *LargeFilesError) Error() string {
	return fmt.Sprintf("%v: %s", ErrLargeFiles, strings.Join(e.Paths, ", "))
}

func (e *LargeFilesError) Is(target error) bool {
	return target == ErrLargeFiles
}

// Checker finds large files that git does not ignore.
type Checker struct {
	root       string
	maxSize    int64
	exclusions []string
	git        GitRunner
	log        logrus.FieldLogger
}

// New creates a Checker for root with the default limit and exclusions.
func New(root string, git GitRunner, log logrus.FieldLogger) *Checker {
	return &Checker{
		root:       root,
		maxSize:    DefaultMaxFileSize,
		exclusions: DefaultExclusions,
		git:        git,
		log:        log,
	}
}

// SetMaxFileSize sets the size limit in bytes.
func (c *Checker) SetMaxFileSize(n int64) {
	c.maxSize = n
}

// Check returns a *LargeFilesError when any non-ignored file exceeds the limit.
func (c *Checker) Check(ctx context.Context) error {
	large, err := c.FindLarge()
	if err != nil {
		return err
	}
	if len(large) == 0 {
		return nil
	}
	c.log.WithField("count", len(large)).Debug("large files found, filtering ignored")

	kept, err := c.FilterIgnored(ctx, large)
	if err != nil {
		return err
	}
	if len(kept) == 0 {
		return nil
	}
	return &LargeFilesError{Paths: kept}
}

// FindLarge walks the tree and returns regular files strictly larger than
// the limit, skipping the excluded directories.
func (c *Checker) FindLarge() ([]string, error) {
	excluded := make(map[string]bool, len(c.exclusions))
	for _, e := range c.exclusions {
		excluded[filepath.Join(c.root, filepath.FromSlash(e))] = true
	}

	var large []string
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if excluded[path] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > c.maxSize {
			large = append(large, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", c.root, err)
	}
	return large, nil
}

// FilterIgnored drops paths that git ignores. git check-ignore exits
// non-zero when nothing is ignored, so its exit status is not checked.
func (c *Checker) FilterIgnored(ctx context.Context, paths []string) ([]string, error) {
	args := append([]string{"check-ignore", "--verbose", "--non-matching"}, paths...)
	out, err := c.git.RunGit(ctx, args, false)
	if err != nil {
		return nil, err
	}
	return ParseCheckIgnore(out), nil
}

// ParseCheckIgnore returns the paths from `git check-ignore --verbose
// --non-matching` output that matched no pattern. Each line is
// "<source>:<linenum>:<pattern>\t<path>"; all three fields are empty
// for paths that are not ignored.
func ParseCheckIgnore(out []byte) []string {
	var notIgnored []string
	for _, line := range bytes.Split(out, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		fields, path, ok := bytes.Cut(line, []byte("\t"))
		if !ok {
			continue
		}
		if string(fields) == "::" {
			notIgnored = append(notIgnored, string(path))
		}
	}
	return notIgnored
}
