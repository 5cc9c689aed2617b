package model

// DefaultTimezone is used when a device never reported one.
const DefaultTimezone = "UTC"

// Device is a registered client installation.
type Device struct {
	DeviceID     string        `json:"deviceId"`
	Timezone     string        `json:"timezone"`
	Subscription *Subscription `json:"subscription"`
	UpdatedAt    int64         `json:"updatedAt"`
}

// Document is everything the relay persists, keyed by device id.
type Document struct {
	Devices       map[string]Device            `json:"devices"`
	TasksByDevice map[string][]SyncedTask      `json:"tasksByDevice"`
	SentByDevice  map[string]map[string]string `json:"sentByDevice"`
}

// NewDocument returns an empty document with all maps allocated.
func NewDocument() *Document {
	return &Document{
		Devices:       map[string]Device{},
		TasksByDevice: map[string][]SyncedTask{},
		SentByDevice:  map[string]map[string]string{},
	}
}

// Normalize allocates any map left nil by decoding.
func (d *Document) Normalize() {
	if d.Devices == nil {
		d.Devices = map[string]Device{}
	}
	if d.TasksByDevice == nil {
		d.TasksByDevice = map[string][]SyncedTask{}
	}
	if d.SentByDevice == nil {
		d.SentByDevice = map[string]map[string]string{}
	}
}
