package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"botshop/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"
)

// LoadState describes what Load found on disk
type LoadState string

const (
	LoadStateOK       LoadState = "ok"
	LoadStateMissing  LoadState = "missing"
	LoadStateRepaired LoadState = "repaired"
	LoadStateCorrupt  LoadState = "corrupt"
)

// Load reads the document at path. It never fails: a missing or unparsable
// file yields an empty document, and a decoded document is normalized so all
// collections are present. The returned state tells the caller whether the
// on-disk copy should be rewritten.
func Load(path string) (*models.Document, LoadState) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.WithFields(log.Fields{
				"path":  path,
				"error": err,
			}).Warn("Failed to read store document, starting from an empty document")
			return models.NewDocument(), LoadStateCorrupt
		}
		return models.NewDocument(), LoadStateMissing
	}

	doc, err := decodeDocument(data)
	if err != nil {
		log.WithFields(log.Fields{
			"path":  path,
			"bytes": len(data),
			"error": err,
		}).Warn("Store document is unparsable, starting from an empty document")
		return models.NewDocument(), LoadStateCorrupt
	}

	if doc.Normalize() {
		return doc, LoadStateRepaired
	}
	return doc, LoadStateOK
}

// decodeDocument strips a leading byte-order mark and decodes the JSON body
func decodeDocument(data []byte) (*models.Document, error) {
	body, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode text: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	if body[0] != '{' {
		return nil, fmt.Errorf("document root is not an object")
	}

	var doc models.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

// Encode serializes a document the way Save writes it
func Encode(doc *models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes the whole document to a temporary sibling of path and renames
// it over path. Readers observe either the previous file or the new one,
// never a partial write. The parent directory is created if missing.
func Save(path string, doc *models.Document) error {
	_, err := save(path, doc)
	return err
}

func save(path string, doc *models.Document) (int, error) {
	data, err := Encode(doc)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.WithFields(log.Fields{
				"path":  tmpPath,
				"error": rmErr,
			}).Warn("Failed to remove temp file")
		}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return 0, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return 0, fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return 0, fmt.Errorf("failed to replace store document: %w", err)
	}
	return len(data), nil
}
