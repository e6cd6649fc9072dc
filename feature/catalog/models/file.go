package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is a catalog file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension. Anything that is
// not .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// TimestampPrecision is the finest timestamp resolution the song store keeps.
const TimestampPrecision = time.Microsecond

// Decode reads a catalog. Songs and packs without a timestamp get now.
// Timestamps are truncated to TimestampPrecision so a stored row compares
// equal to its catalog version.
func Decode(r io.Reader, format Format, now time.Time) (*Catalog, error) {
	var c Catalog
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&c); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to decode yaml catalog: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode json catalog: %w", err)
		}
	}

	for i := range c.Songs {
		if c.Songs[i].LastModified.IsZero() {
			c.Songs[i].LastModified = now
		}
		c.Songs[i].LastModified = c.Songs[i].LastModified.Truncate(TimestampPrecision)
		if c.Songs[i].Packs == nil {
			c.Songs[i].Packs = []string{}
		}
	}
	for i := range c.Packs {
		if c.Packs[i].LastModified.IsZero() {
			c.Packs[i].LastModified = now
		}
		c.Packs[i].LastModified = c.Packs[i].LastModified.Truncate(TimestampPrecision)
	}
	return &c, nil
}

// Encode writes a sorted copy of c.
func Encode(w io.Writer, format Format, c *Catalog) error {
	out := c.Clone()
	out.Sort()
	for i := range out.Songs {
		if out.Songs[i].Packs == nil {
			out.Songs[i].Packs = []string{}
		}
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode yaml catalog: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode json catalog: %w", err)
		}
		return nil
	}
}

// Marshal encodes c into memory.
func Marshal(format Format, c *Catalog) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, format, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadFile loads the catalog at path.
func ReadFile(path string, now time.Time) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Decode(f, FormatFromPath(path), now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// WriteFile replaces the catalog at path. The new content is written to a
// temporary file in the same directory and renamed over path.
func WriteFile(path string, c *Catalog) error {
	data, err := Marshal(FormatFromPath(path), c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set catalog permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close catalog: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace catalog: %w", err)
	}
	return nil
}
