package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/onehub-labs/onehub/internal/cli/output"
	"github.com/onehub-labs/onehub/internal/store"
)

// NewWorkspacesCommand creates the workspaces command group.
func NewWorkspacesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspaces",
		Aliases: []string{"ws"},
		Short:   "Manage workspaces",
		Long: `Manage workspaces, the named groupings connections live in.

Deleting a workspace detaches its connections instead of deleting them.`,
	}

	cmd.AddCommand(newWorkspacesListCommand())
	cmd.AddCommand(newWorkspacesAddCommand())
	cmd.AddCommand(newWorkspacesRemoveCommand())
	cmd.AddCommand(newWorkspacesAssignCommand())

	return cmd
}

func newWorkspacesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspaces and their connection counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			workspaces, err := cmdCtx.Store.ListWorkspaces(ctx)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(workspaces)
			}

			r.Header(1, fmt.Sprintf("Workspaces (%d total)", len(workspaces)))
			if len(workspaces) == 0 {
				r.Muted("No workspaces. Add one with 'onehub workspaces add'.")
				return nil
			}

			for _, ws := range workspaces {
				conns, err := cmdCtx.Store.ListConnectionsByWorkspace(ctx, ws.ID)
				if err != nil {
					return err
				}
				r.Printf("  %-24s %s\n", ws.Name,
					r.Styles().Muted.Render(fmt.Sprintf("%d connection(s)", len(conns))))
			}
			return nil
		},
	}
}

func newWorkspacesAddCommand() *cobra.Command {
	var color, icon string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ws := &store.Workspace{Name: args[0], Color: color, Icon: icon}
			if err := cmdCtx.Store.CreateWorkspace(cmd.Context(), ws); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("Created workspace %q", ws.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Display color (hex or name)")
	cmd.Flags().StringVar(&icon, "icon", "", "Display icon identifier")
	return cmd
}

func newWorkspacesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a workspace, detaching its connections",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			ws, err := findWorkspaceByName(ctx, cmdCtx.Store, args[0])
			if err != nil {
				return err
			}
			if err := cmdCtx.Store.DeleteWorkspace(ctx, ws.ID); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("Removed workspace %q (connections detached)", ws.Name))
			return nil
		},
	}
}

func newWorkspacesAssignCommand() *cobra.Command {
	var detach bool

	cmd := &cobra.Command{
		Use:   "assign <connection> [workspace]",
		Short: "Move a connection into a workspace",
		Long: `Assign a connection to a workspace by name.

With --none the connection is detached from its workspace instead.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			rec, err := resolveConnection(ctx, cmdCtx.Store, args[0])
			if err != nil {
				return err
			}

			if detach {
				if err := cmdCtx.Store.AssignWorkspace(ctx, rec.ID, nil); err != nil {
					return err
				}
				cmdCtx.Renderer.Success(fmt.Sprintf("Detached %q from its workspace", rec.Name))
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("workspace name required (or use --none to detach)")
			}
			ws, err := findWorkspaceByName(ctx, cmdCtx.Store, args[1])
			if err != nil {
				return err
			}
			if err := cmdCtx.Store.AssignWorkspace(ctx, rec.ID, &ws.ID); err != nil {
				return err
			}

			cmdCtx.Renderer.Success(fmt.Sprintf("Assigned %q to workspace %q", rec.Name, ws.Name))
			return nil
		},
	}

	cmd.Flags().BoolVar(&detach, "none", false, "Detach the connection from its workspace")
	return cmd
}
