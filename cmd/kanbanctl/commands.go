package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kanban-todo/board"
	"kanban-todo/domain"
)

const defaultServer = "http://localhost:8080"

type globalOptions struct {
	server string
	token  string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "kanbanctl",
		Short:         "Manage a kanban board from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("KANBAN_SERVER")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "server base URL (env KANBAN_SERVER)")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("KANBAN_TOKEN"), "session token (env KANBAN_TOKEN)")

	root.AddCommand(
		loginCmd(opts),
		boardCmd(opts),
		listCmd(opts),
		addCmd(opts),
		moveCmd(opts),
		toggleCmd(opts),
		rmCmd(opts),
	)
	return root
}

func (o *globalOptions) client() *board.Client {
	return board.NewClient(o.server, o.token)
}

func (o *globalOptions) loadBoard(ctx context.Context) (*board.Board, error) {
	b := board.New(o.client(), nil)
	if err := b.Load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func loginCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Log in and print the session token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := opts.client().Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if tok == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), "authentication is disabled on this server")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
}

func boardCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Show tasks by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.loadBoard(cmd.Context())
			if err != nil {
				return err
			}
			printColumns(cmd.OutOrStdout(), b.Columns())
			return nil
		},
	}
}

func listCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show active and completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.loadBoard(cmd.Context())
			if err != nil {
				return err
			}
			printList(cmd.OutOrStdout(), b.ListView())
			return nil
		},
	}
}

func addCmd(opts *globalOptions) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := domain.ParseStatus(status)
			if err != nil {
				return err
			}
			b := board.New(opts.client(), nil)
			created, err := b.Create(cmd.Context(), strings.Join(args, " "), st)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", string(domain.StatusBacklog), "initial status (backlog, in-progress, done)")
	return cmd
}

func moveCmd(opts *globalOptions) *cobra.Command {
	var before string
	cmd := &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to a column, optionally before another task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := domain.Status(args[1])
			if !to.Valid() {
				return domain.ErrInvalidStatus
			}
			b, err := opts.loadBoard(cmd.Context())
			if err != nil {
				return err
			}
			if err := b.Drag(cmd.Context(), board.Gesture{TaskID: args[0], To: to, OverID: before}); err != nil {
				return err
			}
			printColumns(cmd.OutOrStdout(), b.Columns())
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "place the task before this task id")
	return cmd
}

func toggleCmd(opts *globalOptions) *cobra.Command {
	var reopenTo string
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done, or reopen a done task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reopen, err := domain.ParseStatus(reopenTo)
			if err != nil {
				return err
			}
			b, err := opts.loadBoard(cmd.Context())
			if err != nil {
				return err
			}
			updated, err := b.Toggle(cmd.Context(), args[0], reopen)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", updated.ID, updated.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&reopenTo, "reopen-to", string(domain.StatusBacklog), "status for reopened tasks (backlog or in-progress)")
	return cmd
}

func rmCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.client().Delete(cmd.Context(), args[0])
		},
	}
}

func printColumns(w io.Writer, cols []board.Column) {
	for i, col := range cols {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", col.Title, len(col.Tasks))
		for _, t := range col.Tasks {
			fmt.Fprintf(w, "  %s  %s\n", t.ID, t.Content)
		}
	}
}

func printList(w io.Writer, v board.ListView) {
	for _, t := range v.Active {
		fmt.Fprintf(w, "[ ] %s  %s (%s)\n", t.ID, t.Content, t.Status.Title())
	}
	for _, t := range v.Completed {
		fmt.Fprintf(w, "[x] %s  %s\n", t.ID, t.Content)
	}
}
