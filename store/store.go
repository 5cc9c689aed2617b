// Package store persists the relay document: registered devices, their task
// snapshots and the reminders already sent for them.
package store

import (
	"context"

	"focustasks/model"
)

// Repository loads and saves the whole relay document. Implementations are
// not safe for concurrent read-modify-write; callers serialize.
type Repository interface {
	Load(ctx context.Context) (*model.Document, error)
	Save(ctx context.Context, doc *model.Document) error
}

// deviceIDs returns every device id mentioned anywhere in doc.
func deviceIDs(doc *model.Document) []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range doc.Devices {
		add(id)
	}
	for id := range doc.TasksByDevice {
		add(id)
	}
	for id := range doc.SentByDevice {
		add(id)
	}
	return ids
}
