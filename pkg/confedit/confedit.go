// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

// Package confedit mutates sysconfig-style key=value files through typed
// patches instead of text substitution. Comments and unrecognized lines are
// preserved, and every mutating apply writes a timestamped backup of the
// original file first.
package confedit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultFileMode os.FileMode = 0o644

// Patch sets one key to a new value.
type Patch struct {
	Key   string
	Value string
}

// Bool builds a patch for a boolean flag.
func Bool(key string, value bool) Patch {
	return Patch{Key: key, Value: strconv.FormatBool(value)}
}

// File is a parsed key=value configuration file. Lines holds the file
// verbatim, index maps keys to their line position.
type File struct {
	path  string
	mode  os.FileMode
	lines []string
	index map[string]int
}

// Parse reads and parses the file at path. A missing file yields an empty
// File that can still be patched and written.
func Parse(path string) (*File, error) {
	f := &File{
		path:  path,
		mode:  defaultFileMode,
		index: map[string]int{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if info, err := os.Stat(path); err == nil {
		f.mode = info.Mode().Perm()
	}

	f.lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(f.lines) == 1 && f.lines[0] == "" {
		f.lines = nil
	}
	for i, line := range f.lines {
		if key, ok := parseKey(line); ok {
			f.index[key] = i
		}
	}
	return f, nil
}

// parseKey extracts the key of a key=value line. Comments and lines
// without '=' carry no key.
func parseKey(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	key, _, found := strings.Cut(trimmed, "=")
	if !found {
		return "", false
	}
	return strings.TrimSpace(key), true
}

// Get returns the current value of key and whether it is set.
func (f *File) Get(key string) (string, bool) {
	i, ok := f.index[key]
	if !ok {
		return "", false
	}
	_, value, _ := strings.Cut(strings.TrimSpace(f.lines[i]), "=")
	return strings.Trim(strings.TrimSpace(value), `"`), true
}

// Set applies a patch in memory and reports whether anything changed.
// Every line carrying the key is rewritten, so a file with duplicate keys
// ends up consistent no matter which occurrence a consumer reads. Unknown
// keys are appended at the end of the file.
func (f *File) Set(p Patch) bool {
	line := fmt.Sprintf("%s=%q", p.Key, p.Value)

	found := false
	changed := false
	for i, l := range f.lines {
		if key, ok := parseKey(l); ok && key == p.Key {
			found = true
			if l != line {
				f.lines[i] = line
				changed = true
			}
		}
	}
	if found {
		return changed
	}

	f.lines = append(f.lines, line)
	f.index[p.Key] = len(f.lines) - 1
	return true
}

// serialize renders the file back to bytes.
func (f *File) serialize() []byte {
	if len(f.lines) == 0 {
		return nil
	}
	return []byte(strings.Join(f.lines, "\n") + "\n")
}

// Apply patches the file at path and writes it back. Before any byte of the
// original is touched, a timestamped backup copy is created next to it.
// When no patch changes anything, neither the file nor a backup is written.
// It returns the backup path ("" when nothing was written) and whether the
// file was mutated.
func Apply(path string, patches []Patch) (backupPath string, changed bool, err error) {
	f, err := Parse(path)
	if err != nil {
		return "", false, err
	}

	for _, p := range patches {
		if f.Set(p) {
			changed = true
		}
	}
	if !changed {
		return "", false, nil
	}

	backupPath, err = backup(path, f.mode)
	if err != nil {
		return "", false, fmt.Errorf("backup %s: %w", path, err)
	}

	if err := os.WriteFile(path, f.serialize(), f.mode); err != nil {
		return backupPath, false, fmt.Errorf("write %s: %w", path, err)
	}
	return backupPath, true, nil
}

// backup copies the current file content to <path>.<timestamp>.bak. A file
// that does not exist yet needs no backup.
func backup(path string, mode os.FileMode) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	timestamp := time.Now().Format("20060102-150405.000000000")
	backupPath := filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.%s.bak", filepath.Base(path), timestamp))
	if err := os.WriteFile(backupPath, data, mode); err != nil {
		return "", err
	}
	return backupPath, nil
}
