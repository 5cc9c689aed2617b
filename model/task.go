package model

// Task is a client-side task record as persisted in local storage.
//
// Color is a cached copy of the referenced type's color taken when the type
// was assigned. It may lag behind the registry until the task is reassigned.
type Task struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	DueAt     *string `json:"dueAt"`
	AllDay    bool    `json:"allDay"`
	TypeID    string  `json:"typeId"`
	Color     string  `json:"color"`
	Completed bool    `json:"completed"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt,omitempty"`
}

// HasDeadline reports whether the task carries a non-empty dueAt.
func (t Task) HasDeadline() bool {
	return t.DueAt != nil && *t.DueAt != ""
}

// SyncedTask is the sanitized form of a task kept by the relay server.
type SyncedTask struct {
	ID        string  `json:"id" firestore:"id"`
	Title     string  `json:"title" firestore:"title"`
	DueAt     *string `json:"dueAt" firestore:"dueAt"`
	AllDay    bool    `json:"allDay" firestore:"allDay"`
	Completed bool    `json:"completed" firestore:"completed"`
	UpdatedAt int64   `json:"updatedAt" firestore:"updatedAt"`
}

// Synced converts a local task into the payload shape sent to the relay.
func (t Task) Synced() SyncedTask {
	return SyncedTask{
		ID:        t.ID,
		Title:     t.Title,
		DueAt:     t.DueAt,
		AllDay:    t.AllDay,
		Completed: t.Completed,
		UpdatedAt: t.UpdatedAt,
	}
}
