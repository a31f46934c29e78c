package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"license-lookup-go/scrapers"
)

// Encode renders records as an indented JSON array. Non-ASCII text and
// HTML characters are written as-is; nil becomes [].
func Encode(records []scrapers.LicenseRecord) ([]byte, error) {
	if records == nil {
		records = []scrapers.LicenseRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("output: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteJSON writes records to path in one go. The file is written next to
// path first and renamed, so a failed write never leaves a truncated dump.
func WriteJSON(path string, records []scrapers.LicenseRecord) ([]byte, error) {
	data, err := Encode(records)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("output: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("output: chmod %s: %w", tmp.Name(), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("output: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("output: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("output: rename to %s: %w", path, err)
	}
	return data, nil
}
