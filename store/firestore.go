package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"focustasks/model"
)

// DevicesCollection holds one document per device.
const DevicesCollection = "Devices"

type deviceDoc struct {
	DeviceID     string              `firestore:"deviceId"`
	Timezone     string              `firestore:"timezone"`
	Subscription *model.Subscription `firestore:"subscription"`
	Tasks        []model.SyncedTask  `firestore:"tasks"`
	Sent         map[string]string   `firestore:"sent"`
	UpdatedAt    int64               `firestore:"updatedAt"`
}

// Firestore keeps the document in the Devices collection.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (f *Firestore) Load(ctx context.Context) (*model.Document, error) {
	doc := model.NewDocument()
	iter := f.client.Collection(DevicesCollection).Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if status.Code(err) == codes.NotFound {
			return doc, nil
		}
		if err != nil {
			return nil, fmt.Errorf("list devices: %w", err)
		}

		var d deviceDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("decode device %s: %w", snap.Ref.ID, err)
		}
		id := d.DeviceID
		if id == "" {
			id = snap.Ref.ID
		}
		doc.Devices[id] = model.Device{
			DeviceID:     id,
			Timezone:     d.Timezone,
			Subscription: d.Subscription,
			UpdatedAt:    d.UpdatedAt,
		}
		if d.Tasks != nil {
			doc.TasksByDevice[id] = d.Tasks
		}
		if d.Sent != nil {
			doc.SentByDevice[id] = d.Sent
		}
	}
	return doc, nil
}

func (f *Firestore) Save(ctx context.Context, doc *model.Document) error {
	ids := deviceIDs(doc)
	if len(ids) == 0 {
		return nil
	}

	bw := f.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(ids))
	for _, id := range ids {
		dev := doc.Devices[id]
		tasks := doc.TasksByDevice[id]
		if tasks == nil {
			tasks = []model.SyncedTask{}
		}
		sent := doc.SentByDevice[id]
		if sent == nil {
			sent = map[string]string{}
		}
		job, err := bw.Set(f.client.Collection(DevicesCollection).Doc(id), deviceDoc{
			DeviceID:     id,
			Timezone:     dev.Timezone,
			Subscription: dev.Subscription,
			Tasks:        tasks,
			Sent:         sent,
			UpdatedAt:    dev.UpdatedAt,
		})
		if err != nil {
			bw.End()
			return fmt.Errorf("queue device %s: %w", id, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("write device %s: %w", ids[i], err)
		}
	}
	return nil
}
