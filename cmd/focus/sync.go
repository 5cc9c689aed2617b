package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"focustasks/model"
	"focustasks/syncclient"
)

func newRegisterCmd(app *App) *cobra.Command {
	var sub model.Subscription
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register this device and its push subscription with the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.client == nil {
				return syncclient.ErrNoServer
			}
			if !sub.Valid() {
				return errors.New("--endpoint, --p256dh and --auth are all required")
			}
			ctx := cmd.Context()
			deviceID, err := app.session.Prefs.DeviceID(ctx)
			if err != nil {
				return err
			}
			token, err := app.client.Register(ctx, syncclient.RegisterRequest{
				DeviceID:     deviceID,
				Timezone:     app.timezoneName(),
				Subscription: &sub,
			})
			if err != nil {
				return err
			}
			if token != "" {
				if err := app.kv.Set(ctx, keyRelayToken, token); err != nil {
					return err
				}
			}
			if err := app.session.SyncNow(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered device %s\n", deviceID)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub.Endpoint, "endpoint", "", "Push subscription endpoint")
	cmd.Flags().StringVar(&sub.Keys.P256dh, "p256dh", "", "Subscription p256dh key")
	cmd.Flags().StringVar(&sub.Keys.Auth, "auth", "", "Subscription auth secret")
	return cmd
}

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Upload the task list to the relay now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.client == nil {
				return syncclient.ErrNoServer
			}
			if err := app.session.SyncNow(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %s\n", plural(app.session.Tasks.Len(), "task"))
			return nil
		},
	}
}
