package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rshade/pinbatch/internal/engine/batch"
	"github.com/rshade/pinbatch/internal/pinterest"
)

// pinCall adapts Engine.ProcessPinBatch for one operation and update.
func pinCall(op pinterest.Operation, update *pinterest.PinUpdate) batchCall[*pinterest.Pin] {
	return func(ctx context.Context, engine *pinterest.Engine, ids []string, opts ...pinterest.CallOption) (
		*batch.Result[string, *pinterest.Pin], error,
	) {
		return engine.ProcessPinBatch(ctx, ids, op, update, opts...)
	}
}

func newPinGetCmd() *cobra.Command {
	var flags BatchFlags
	cmd := &cobra.Command{
		Use:   "get ID...",
		Short: "Fetch pins",
		Long:  "Fetches every pin by id. Repeated ids are fetched once.",
		Example: `  pinbatch pin get p1 p2 p3 --fixture store.yaml
  pinbatch pin get p1 p2 --fixture store.yaml --output json`,
		Args: requireIDs(pinterest.ResourcePin),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, batchRun[*pinterest.Pin]{
				resource: pinterest.ResourcePin,
				op:       pinterest.OperationGet,
				flags:    &flags,
				call:     pinCall(pinterest.OperationGet, nil),
				layout:   pinTable,
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newPinUpdateCmd() *cobra.Command {
	var (
		flags                                    BatchFlags
		title, description, link, altText, board string
	)
	cmd := &cobra.Command{
		Use:   "update ID...",
		Short: "Update pins",
		Long:  "Applies the same field changes to every pin. At least one field flag is required.",
		Example: `  pinbatch pin update p1 p2 --title "Weeknight dinners" --fixture store.yaml --save
  pinbatch pin update p3 --board b2 --fixture store.yaml`,
		Args: requireIDs(pinterest.ResourcePin),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := &pinterest.PinUpdate{
				Title:       optionalString(cmd, "title", title),
				Description: optionalString(cmd, "description", description),
				Link:        optionalString(cmd, "link", link),
				AltText:     optionalString(cmd, "alt-text", altText),
				BoardID:     optionalString(cmd, "board", board),
			}
			return runBatch(cmd, args, batchRun[*pinterest.Pin]{
				resource: pinterest.ResourcePin,
				op:       pinterest.OperationUpdate,
				flags:    &flags,
				call:     pinCall(pinterest.OperationUpdate, update),
				layout:   pinTable,
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&title, "title", "", "new pin title")
	cmd.Flags().StringVar(&description, "description", "", "new pin description")
	cmd.Flags().StringVar(&link, "link", "", "new destination link")
	cmd.Flags().StringVar(&altText, "alt-text", "", "new image alt text")
	cmd.Flags().StringVar(&board, "board", "", "move the pins to this board id")
	return cmd
}

func newPinDeleteCmd() *cobra.Command {
	var flags BatchFlags
	cmd := &cobra.Command{
		Use:     "delete ID...",
		Short:   "Delete pins",
		Example: `  pinbatch pin delete p1 p2 --fixture store.yaml --save`,
		Args:    requireIDs(pinterest.ResourcePin),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, batchRun[*pinterest.Pin]{
				resource: pinterest.ResourcePin,
				op:       pinterest.OperationDelete,
				flags:    &flags,
				call:     pinCall(pinterest.OperationDelete, nil),
				layout:   pinTable,
			})
		},
	}
	flags.register(cmd)
	return cmd
}
