package domain

import (
	"sort"
	"strings"
)

const (
	EntryTypeFile   = "file"
	EntryTypeFolder = "folder"
)

// DirectoryEntry is one row of a shared-tree listing. Path is the
// slash-separated path relative to the shared root and uniquely identifies
// the entry within one listing snapshot.
type DirectoryEntry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	Modified  int64  `json:"modified"`
	Extension string `json:"extension,omitempty"`
}

func (e DirectoryEntry) IsFile() bool { return e.Type == EntryTypeFile }

// SortEntries orders a listing folders-first, then by lowercased path.
// Repeated listings of an unchanged tree must be byte-identical once
// encoded, so the order is part of the contract, not cosmetics.
func SortEntries(entries []DirectoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsFile() != b.IsFile() {
			return !a.IsFile()
		}
		return strings.ToLower(a.Path) < strings.ToLower(b.Path)
	})
}
