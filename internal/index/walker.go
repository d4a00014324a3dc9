// Package index builds and caches listings of a shared directory tree.
package index

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lanshare/lanshare/internal/domain"
)

// BuildListing walks root and returns one DirectoryEntry per file and folder,
// sorted folders-first by lowercased path. Entries that cannot be read are
// skipped; the walk only fails when root itself is unreadable.
func BuildListing(root string) ([]domain.DirectoryEntry, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	entries, err := walkDirListing(root)
	if err != nil {
		// The primary traversal errored somewhere unexpected. The manual
		// walk is slower but makes per-entry skipping explicit.
		entries, err = readDirListing(root, "")
		if err != nil {
			return nil, err
		}
	}

	if entries == nil {
		entries = []domain.DirectoryEntry{}
	}

	domain.SortEntries(entries)
	return entries, nil
}

func walkDirListing(root string) ([]domain.DirectoryEntry, error) {
	var entries []domain.DirectoryEntry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// One bad entry never aborts the listing
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		entries = append(entries, newEntry(rel, info))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// readDirListing is the fallback traversal: plain recursive ReadDir.
func readDirListing(root, rel string) ([]domain.DirectoryEntry, error) {
	dirents, err := os.ReadDir(filepath.Join(root, rel))
	if err != nil {
		if rel == "" {
			return nil, err
		}
		return nil, nil
	}

	var entries []domain.DirectoryEntry
	for _, d := range dirents {
		childRel := filepath.Join(rel, d.Name())

		info, err := d.Info()
		if err != nil {
			continue
		}

		entries = append(entries, newEntry(childRel, info))

		if d.IsDir() {
			children, err := readDirListing(root, childRel)
			if err != nil {
				continue
			}
			entries = append(entries, children...)
		}
	}

	return entries, nil
}

func newEntry(rel string, info fs.FileInfo) domain.DirectoryEntry {
	e := domain.DirectoryEntry{
		Name:     info.Name(),
		Path:     filepath.ToSlash(rel),
		Modified: info.ModTime().Unix(),
	}

	if info.IsDir() {
		e.Type = domain.EntryTypeFolder
	} else {
		e.Type = domain.EntryTypeFile
		e.Size = info.Size()
		e.Extension = strings.ToLower(filepath.Ext(info.Name()))
	}

	return e
}
