package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"focustasks/model"
)

// JSONFile keeps the document in one JSON file on disk.
type JSONFile struct {
	path   string
	logger *log.Logger
}

// NewJSONFile creates the file and its directory when missing.
func NewJSONFile(path string, logger *log.Logger) (*JSONFile, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	f := &JSONFile{path: path, logger: logger}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := f.Save(context.Background(), model.NewDocument()); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *JSONFile) Path() string { return f.path }

// Load returns an empty document when the file is missing or unreadable.
func (f *JSONFile) Load(_ context.Context) (*model.Document, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("read store failed, starting empty", "path", f.path, "err", err)
		}
		return model.NewDocument(), nil
	}
	doc := model.NewDocument()
	if err := json.Unmarshal(b, doc); err != nil {
		f.logger.Warn("store file is not valid json, starting empty", "path", f.path, "err", err)
		return model.NewDocument(), nil
	}
	doc.Normalize()
	return doc, nil
}

// Save writes through a temp file so a crash never leaves half a document.
func (f *JSONFile) Save(_ context.Context, doc *model.Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".store-*.json")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}
