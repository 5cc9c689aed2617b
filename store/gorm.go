package store

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"focustasks/model"
)

// DeviceSnapshot is one device's row in the relay tables.
type DeviceSnapshot struct {
	DeviceID     string `gorm:"column:device_id;primaryKey;size:191"`
	Timezone     string `gorm:"column:timezone;size:64"`
	Subscription string `gorm:"column:subscription;type:text"`
	Tasks        string `gorm:"column:tasks;type:longtext"`
	Sent         string `gorm:"column:sent;type:text"`
	UpdatedAt    int64  `gorm:"column:updated_at;autoUpdateTime:false"`
}

func (DeviceSnapshot) TableName() string {
	return "device_snapshots"
}

// Gorm keeps one DeviceSnapshot row per device.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) (*Gorm, error) {
	if err := db.AutoMigrate(&DeviceSnapshot{}); err != nil {
		return nil, fmt.Errorf("migrate device_snapshots: %w", err)
	}
	return &Gorm{db: db}, nil
}

func (g *Gorm) Load(ctx context.Context) (*model.Document, error) {
	var rows []DeviceSnapshot
	if err := g.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load device snapshots: %w", err)
	}
	return fromRows(rows)
}

func (g *Gorm) Save(ctx context.Context, doc *model.Document) error {
	rows, err := toRows(doc)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	err = g.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save device snapshots: %w", err)
	}
	return nil
}

func toRows(doc *model.Document) ([]DeviceSnapshot, error) {
	ids := deviceIDs(doc)
	rows := make([]DeviceSnapshot, 0, len(ids))
	for _, id := range ids {
		dev, ok := doc.Devices[id]
		row := DeviceSnapshot{DeviceID: id, Timezone: dev.Timezone, UpdatedAt: dev.UpdatedAt}
		if ok && dev.Subscription != nil {
			b, err := json.Marshal(dev.Subscription)
			if err != nil {
				return nil, err
			}
			row.Subscription = string(b)
		}

		tasks := doc.TasksByDevice[id]
		if tasks == nil {
			tasks = []model.SyncedTask{}
		}
		b, err := json.Marshal(tasks)
		if err != nil {
			return nil, err
		}
		row.Tasks = string(b)

		sent := doc.SentByDevice[id]
		if sent == nil {
			sent = map[string]string{}
		}
		if b, err = json.Marshal(sent); err != nil {
			return nil, err
		}
		row.Sent = string(b)
		rows = append(rows, row)
	}
	return rows, nil
}

func fromRows(rows []DeviceSnapshot) (*model.Document, error) {
	doc := model.NewDocument()
	for _, row := range rows {
		dev := model.Device{DeviceID: row.DeviceID, Timezone: row.Timezone, UpdatedAt: row.UpdatedAt}
		if row.Subscription != "" {
			var sub model.Subscription
			if err := json.Unmarshal([]byte(row.Subscription), &sub); err != nil {
				return nil, fmt.Errorf("device %s subscription: %w", row.DeviceID, err)
			}
			dev.Subscription = &sub
		}
		doc.Devices[row.DeviceID] = dev

		if row.Tasks != "" {
			var tasks []model.SyncedTask
			if err := json.Unmarshal([]byte(row.Tasks), &tasks); err != nil {
				return nil, fmt.Errorf("device %s tasks: %w", row.DeviceID, err)
			}
			doc.TasksByDevice[row.DeviceID] = tasks
		}
		if row.Sent != "" {
			sent := map[string]string{}
			if err := json.Unmarshal([]byte(row.Sent), &sent); err != nil {
				return nil, fmt.Errorf("device %s sent: %w", row.DeviceID, err)
			}
			doc.SentByDevice[row.DeviceID] = sent
		}
	}
	return doc, nil
}
