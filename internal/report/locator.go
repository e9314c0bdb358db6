// Package report turns the sitespeed.io on-disk report tree into
// normalized metrics, aggregates and recommendations. The tree is produced
// by the external container and consumed read-only; every reader degrades
// gracefully when files are missing or partial.
package report

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PageDir identifies one measured page inside a scan's report tree.
type PageDir struct {
	// Path is the absolute page directory.
	Path string
	// Name is the page identifier (directory base name).
	Name string
}

// Locator discovers page directories and artifact files for a scan. It is
// independent of the in-memory registry, so reports remain reachable after
// a process restart.
type Locator struct {
	root string
}

// NewLocator creates a Locator over the report storage root.
func NewLocator(root string) *Locator {
	return &Locator{root: root}
}

// JobDir returns the report root for one scan.
func (l *Locator) JobDir(scanID string) string {
	return filepath.Join(l.root, scanID)
}

// HasReport reports whether any report directory exists for the scan.
func (l *Locator) HasReport(scanID string) bool {
	info, err := os.Stat(l.JobDir(scanID))
	return err == nil && info.IsDir()
}

// PageDirs returns every directory under <job>/pages that directly contains
// a "data" subdirectory, sorted lexicographically by path. The first entry
// is treated as the main page by consumers, so the ordering must be stable.
// An absent tree yields an empty slice, not an error.
func (l *Locator) PageDirs(scanID string) []PageDir {
	pagesDir := filepath.Join(l.JobDir(scanID), "pages")
	var paths []string
	err := filepath.WalkDir(pagesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip
		}
		if d.IsDir() && d.Name() == "data" {
			paths = append(paths, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return nil
	}
	sort.Strings(paths)
	dirs := make([]PageDir, 0, len(paths))
	for _, p := range paths {
		dirs = append(dirs, PageDir{Path: p, Name: filepath.Base(p)})
	}
	return dirs
}

// FindArtifact returns the path of the first file named base anywhere under
// the scan's report root, relative to that root. Walk order is lexical, so
// repeated calls against an unchanged tree return the same file.
func (l *Locator) FindArtifact(scanID, base string) (string, bool) {
	matches := l.findAll(scanID, 1, func(rel string, d fs.DirEntry) bool {
		return d.Name() == base
	})
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// FindVideo locates the first video/*.mp4 artifact.
func (l *Locator) FindVideo(scanID string) (string, bool) {
	return first(l.findAll(scanID, 1, func(rel string, d fs.DirEntry) bool {
		return strings.HasSuffix(d.Name(), ".mp4") && filepath.Base(filepath.Dir(rel)) == "video"
	}))
}

// FindScreenshots locates up to limit screenshots/**/*.png artifacts.
func (l *Locator) FindScreenshots(scanID string, limit int) []string {
	return l.findAll(scanID, limit, func(rel string, d fs.DirEntry) bool {
		return strings.HasSuffix(d.Name(), ".png") && underDir(rel, "screenshots")
	})
}

func (l *Locator) findAll(scanID string, limit int, match func(rel string, d fs.DirEntry) bool) []string {
	jobDir := l.JobDir(scanID)
	var out []string
	_ = filepath.WalkDir(jobDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(jobDir, path)
		if relErr != nil {
			return nil
		}
		if match(rel, d) {
			out = append(out, rel)
			if limit > 0 && len(out) >= limit {
				return fs.SkipAll
			}
		}
		return nil
	})
	return out
}

func underDir(rel, name string) bool {
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if part == name {
			return true
		}
	}
	return false
}

func first(ss []string) (string, bool) {
	if len(ss) == 0 {
		return "", false
	}
	return ss[0], true
}
