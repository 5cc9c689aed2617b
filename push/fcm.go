package push

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"firebase.google.com/go/v4/messaging"

	"focustasks/model"
)

// FCMEndpointPrefix is how browsers backed by Firebase Cloud Messaging
// expose their registration token inside a push endpoint.
const FCMEndpointPrefix = "https://fcm.googleapis.com/fcm/send/"

// Messenger is the part of *messaging.Client FCM needs.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM delivers reminders through the Firebase Admin SDK.
type FCM struct {
	client Messenger
}

func NewFCM(client Messenger) *FCM {
	return &FCM{client: client}
}

// TokenFromEndpoint extracts the registration token from an FCM endpoint.
// Bare tokens are returned as they are.
func TokenFromEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if token, ok := strings.CutPrefix(endpoint, FCMEndpointPrefix); ok && token != "" {
		return token, nil
	}
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return "", fmt.Errorf("not an fcm endpoint: %q", endpoint)
	}
	return endpoint, nil
}

func (f *FCM) Send(ctx context.Context, sub *model.Subscription, payload model.PushPayload) error {
	if sub == nil {
		return ErrSubscriptionGone
	}
	token, err := TokenFromEndpoint(sub.Endpoint)
	if err != nil {
		return err
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: map[string]string{
			"title": payload.Title,
			"body":  payload.Body,
			"url":   payload.URL,
		},
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{"TTL": strconv.Itoa(TTL)},
		},
	}
	if strings.HasPrefix(payload.URL, "https://") {
		msg.Webpush.FCMOptions = &messaging.WebpushFCMOptions{Link: payload.URL}
	}

	if _, err := f.client.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) {
			return ErrSubscriptionGone
		}
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}
