package dto

import (
	"encoding/json"

	"focustasks/model"
)

type RegisterDeviceRequest struct {
	DeviceID     string              `json:"deviceId"`
	Timezone     string              `json:"timezone"`
	Subscription *model.Subscription `json:"subscription"`
}

// SyncTasksRequest keeps tasks raw so entries can be sanitized one by one.
type SyncTasksRequest struct {
	DeviceID string          `json:"deviceId"`
	Timezone string          `json:"timezone"`
	Tasks    json.RawMessage `json:"tasks"`
}
