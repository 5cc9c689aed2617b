package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"focustasks/tracker"
)

func newTypesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List and manage task types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			active := app.session.Types.Active()
			for _, t := range app.session.Types.Types() {
				fmt.Fprintln(cmd.OutOrStdout(), renderType(t, t.ID == active.ID))
			}
			return nil
		},
	}
	cmd.AddCommand(newTypeAddCmd(app))
	cmd.AddCommand(newTypeRemoveCmd(app))
	return cmd
}

func newTypeAddCmd(app *App) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a task type",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.session.AddType(cmd.Context(), strings.Join(args, " "), color)
			if errors.Is(err, tracker.ErrUnknownColor) {
				return fmt.Errorf("%w (one of %s)", err, paletteNames())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added type %s\n", renderType(*res.Type, false))
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "azure", "Palette color: "+paletteNames())
	return cmd
}

func newTypeRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id|name>",
		Short: "Delete a type; its tasks move to the first remaining type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.session.DeleteType(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if res.Removed == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Kept %s: at least one type is required\n", res.Type.Name)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted type %s\n", res.Type.Name)
			return nil
		},
	}
}
