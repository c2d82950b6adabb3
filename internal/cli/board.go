package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rshade/pinbatch/internal/engine/batch"
	"github.com/rshade/pinbatch/internal/pinterest"
)

// boardCall adapts Engine.ProcessBoardBatch for one operation and update.
func boardCall(op pinterest.Operation, update *pinterest.BoardUpdate) batchCall[*pinterest.Board] {
	return func(ctx context.Context, engine *pinterest.Engine, ids []string, opts ...pinterest.CallOption) (
		*batch.Result[string, *pinterest.Board], error,
	) {
		return engine.ProcessBoardBatch(ctx, ids, op, update, opts...)
	}
}

func newBoardGetCmd() *cobra.Command {
	var flags BatchFlags
	cmd := &cobra.Command{
		Use:     "get ID...",
		Short:   "Fetch boards",
		Long:    "Fetches every board by id. Repeated ids are fetched once.",
		Example: `  pinbatch board get b1 b2 --fixture store.yaml`,
		Args:    requireIDs(pinterest.ResourceBoard),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, batchRun[*pinterest.Board]{
				resource: pinterest.ResourceBoard,
				op:       pinterest.OperationGet,
				flags:    &flags,
				call:     boardCall(pinterest.OperationGet, nil),
				layout:   boardTable,
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newBoardUpdateCmd() *cobra.Command {
	var (
		flags                      BatchFlags
		name, description, privacy string
	)
	cmd := &cobra.Command{
		Use:   "update ID...",
		Short: "Update boards",
		Long: `Applies the same field changes to every board. At least one field flag is required.
Privacy is one of PUBLIC, SECRET or PROTECTED (case-insensitive).`,
		Example: `  pinbatch board update b1 b2 --privacy secret --fixture store.yaml --save`,
		Args:    requireIDs(pinterest.ResourceBoard),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := &pinterest.BoardUpdate{
				Name:        optionalString(cmd, "name", name),
				Description: optionalString(cmd, "description", description),
				Privacy:     optionalString(cmd, "privacy", privacy),
			}
			return runBatch(cmd, args, batchRun[*pinterest.Board]{
				resource: pinterest.ResourceBoard,
				op:       pinterest.OperationUpdate,
				flags:    &flags,
				call:     boardCall(pinterest.OperationUpdate, update),
				layout:   boardTable,
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "new board name")
	cmd.Flags().StringVar(&description, "description", "", "new board description")
	cmd.Flags().StringVar(&privacy, "privacy", "", "new board privacy: public, secret or protected")
	return cmd
}

func newBoardDeleteCmd() *cobra.Command {
	var flags BatchFlags
	cmd := &cobra.Command{
		Use:     "delete ID...",
		Short:   "Delete boards",
		Long:    "Deletes every board by id together with the pins on it.",
		Example: `  pinbatch board delete b7 b8 --fixture store.yaml --save`,
		Args:    requireIDs(pinterest.ResourceBoard),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args, batchRun[*pinterest.Board]{
				resource: pinterest.ResourceBoard,
				op:       pinterest.OperationDelete,
				flags:    &flags,
				call:     boardCall(pinterest.OperationDelete, nil),
				layout:   boardTable,
			})
		},
	}
	flags.register(cmd)
	return cmd
}
