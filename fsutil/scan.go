// SPDX-License-Identifier: EPL-2.0

// Package fsutil holds the small filesystem helpers behind path
// autocompletion.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// AudioExtensions are the file extensions ScanPrefix lists, lower case.
var AudioExtensions = []string{".wav", ".mp3", ".ogg", ".aiff", ".aif", ".aifc"}

// Entry is one completion candidate.
type Entry struct {
	Name  string
	Path  string // prefix directory joined with Name
	IsDir bool
}

// ScanPrefix lists the entries of the directory part of prefix whose names
// start with its last element. Directories come first, then audio files, each
// sorted by name. Hidden entries show only when the last element starts with
// a dot. A leading "~/" expands to the home directory. limit <= 0 means no
// limit.
func ScanPrefix(prefix string, limit int) ([]Entry, error) {
	dir, base := splitPrefix(expandHome(prefix))

	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %q: %w", dir, err)
	}

	showHidden := strings.HasPrefix(base, ".")
	var dirs, files []Entry

	for _, it := range items {
		name := it.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !showHidden {
			continue
		}

		entry := Entry{Name: name, Path: joinPrefix(dir, name)}
		if isDir(dir, it) {
			entry.IsDir = true
			dirs = append(dirs, entry)
			continue
		}
		if isAudio(name) {
			files = append(files, entry)
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	out := append(dirs, files...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CommonPrefix is the longest name prefix shared by all entries, used to
// extend a partially typed path.
func CommonPrefix(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	prefix := entries[0].Name
	for _, e := range entries[1:] {
		for !strings.HasPrefix(e.Name, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}

func splitPrefix(prefix string) (dir, base string) {
	if prefix == "" {
		return ".", ""
	}
	if strings.HasSuffix(prefix, string(filepath.Separator)) {
		return prefix, ""
	}
	dir, base = filepath.Split(prefix)
	if dir == "" {
		dir = "."
	}
	return dir, base
}

func joinPrefix(dir, name string) string {
	if dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return home + strings.TrimPrefix(p, "~")
}

// isDir follows symlinks so a link to a directory completes like one.
func isDir(dir string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, e.Name()))
	return err == nil && info.IsDir()
}

func isAudio(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AudioExtensions {
		if ext == a {
			return true
		}
	}
	return false
}
