// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jsonstore implements the load/save contract used by every
// persisted file in §6 of the specification: load starting from a
// set of defaults so that missing keys in an older or hand-edited
// file are filled in, and save synchronously and atomically.
package jsonstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// LoadMerged reads the JSON object at path on top of def (a struct
// is copied first; a map is filled in place), so that any field or
// key absent from the file on disk keeps its default value. If the file does not exist, def is returned as-is.
// This generalizes the recursive default-merge the original
// implementation performed for nested settings.
func LoadMerged[T any](path string, def T) (T, error) {
	out := def
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("config file not found, using defaults", "path", path)
			return out, nil
		}
		return out, fmt.Errorf("jsonstore: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Error("config file is not valid JSON, using defaults", "path", path, "error", err)
		return def, nil
	}
	return out, nil
}

// Save writes data to path as indented JSON, creating parent
// directories as needed and writing atomically via a temp file and
// rename so a crash mid-write cannot leave a truncated file behind.
func Save(path string, data any) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("jsonstore: creating %s: %w", dir, err)
		}
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonstore: encoding %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonstore: creating temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("jsonstore: writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("jsonstore: closing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("jsonstore: renaming into place %s: %w", path, err)
	}
	return nil
}
