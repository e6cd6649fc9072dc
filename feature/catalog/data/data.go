// Package data holds the catalog compiled into the binary.
package data

import (
	"bytes"
	_ "embed"
	"time"

	"song-catalog/feature/catalog/models"
)

//go:embed catalog.json
var catalogJSON []byte

// Catalog decodes the compiled-in catalog.
func Catalog(now time.Time) (*models.Catalog, error) {
	return models.Decode(bytes.NewReader(catalogJSON), models.FormatJSON, now)
}
