// Package statefile reads and writes the small JSON documents the bot keeps
// on disk. A document is always read whole and replaced whole.
package statefile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Read decodes the JSON document at path into v. A missing or empty file
// leaves v untouched and is not an error.
func Read(path string, v any) error {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	if len(content) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(content, v), "decode %s", path)
}

// Write replaces path with the indented JSON encoding of v. The content is
// written to a temporary file in the same directory and renamed over path.
func Write(path string, v any) error {
	content, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return errors.Wrapf(err, "encode %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	return errors.Wrapf(os.Rename(tmp.Name(), path), "replace %s", path)
}
