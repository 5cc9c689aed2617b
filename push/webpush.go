package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"focustasks/model"
)

// VAPID holds the application server keys.
type VAPID struct {
	PublicKey  string
	PrivateKey string
	// Subject is a contact address or https URL.
	Subject string
}

func (v VAPID) Configured() bool {
	return strings.TrimSpace(v.PublicKey) != "" && strings.TrimSpace(v.PrivateKey) != ""
}

// WebPush sends encrypted Web Push messages signed with VAPID.
type WebPush struct {
	vapid  VAPID
	client webpush.HTTPClient
}

func NewWebPush(v VAPID, client *http.Client) (*WebPush, error) {
	if !v.Configured() {
		return nil, errors.New("vapid keys are not configured")
	}
	// webpush-go adds the mailto: scheme itself.
	v.Subject = strings.TrimPrefix(strings.TrimSpace(v.Subject), "mailto:")
	if client == nil {
		client = http.DefaultClient
	}
	return &WebPush{vapid: v, client: client}, nil
}

func (w *WebPush) Send(ctx context.Context, sub *model.Subscription, payload model.PushPayload) error {
	if !sub.Valid() {
		return ErrSubscriptionGone
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      w.client,
		Subscriber:      w.vapid.Subject,
		VAPIDPublicKey:  w.vapid.PublicKey,
		VAPIDPrivateKey: w.vapid.PrivateKey,
		TTL:             TTL,
	})
	if err != nil {
		return fmt.Errorf("web push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("web push: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
