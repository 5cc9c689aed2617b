package model

import "strings"

// Subscription is a browser push subscription as produced by PushManager.subscribe.
type Subscription struct {
	Endpoint       string           `json:"endpoint" firestore:"endpoint"`
	ExpirationTime *int64           `json:"expirationTime,omitempty" firestore:"expirationTime,omitempty"`
	Keys           SubscriptionKeys `json:"keys" firestore:"keys"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh" firestore:"p256dh"`
	Auth   string `json:"auth" firestore:"auth"`
}

// Valid reports whether the endpoint and both keys are present.
func (s *Subscription) Valid() bool {
	if s == nil {
		return false
	}
	return strings.TrimSpace(s.Endpoint) != "" &&
		strings.TrimSpace(s.Keys.P256dh) != "" &&
		strings.TrimSpace(s.Keys.Auth) != ""
}

// PushPayload is the JSON body delivered to the client service worker.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}
