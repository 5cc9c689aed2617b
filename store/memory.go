package store

import (
	"context"
	"encoding/json"
	"sync"

	"focustasks/model"
)

// Memory keeps the document in process. Load hands out a copy so callers
// never share maps with the stored value.
type Memory struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := model.NewDocument()
	if m.raw == nil {
		return doc, nil
	}
	if err := json.Unmarshal(m.raw, doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return doc, nil
}

func (m *Memory) Save(_ context.Context, doc *model.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.raw = b
	m.mu.Unlock()
	return nil
}
