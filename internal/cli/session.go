package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treepack/pkg/errors"
	"github.com/matzehuels/treepack/pkg/observability"
	"github.com/matzehuels/treepack/pkg/pipeline"
	"github.com/matzehuels/treepack/pkg/session"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage stored layout contexts",
		Long: `Manage stored layout contexts.

A session holds the positions and orders of the last layout pass. Commands
run on the same directory share one session, so clearing it makes the next
layout start from scratch.`,
	}

	cmd.AddCommand(c.sessionListCommand())
	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionClearCommand())
	cmd.AddCommand(c.sessionPathCommand())

	return cmd
}

// withSessions opens the configured store for the duration of fn.
func (c *CLI) withSessions(ctx context.Context, fn func(session.Store) error) error {
	cfg, err := c.Config()
	if err != nil {
		return err
	}
	store, err := cfg.OpenSessions(ctx)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func (c *CLI) sessionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSessions(cmd.Context(), func(store session.Store) error {
				sessions, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					printInfo("No sessions")
					return nil
				}
				fmt.Println(sessionTable(sessions, time.Now()))
				return nil
			})
		},
	}
}

// sessionTable renders sessions as a table relative to now.
func sessionTable(sessions []*session.Session, now time.Time) string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID,
			s.Source,
			fmt.Sprint(s.Passes),
			fmt.Sprint(len(s.Context.Positions)),
			now.Sub(s.UpdatedAt).Round(time.Second).String() + " ago",
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Source", "Passes", "Positions", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|dir>",
		Short: "Show a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := sessionArg(args[0])
			if err != nil {
				return err
			}
			return c.withSessions(cmd.Context(), func(store session.Store) error {
				s, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if s == nil {
					return errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
				}
				sum := s.Context.Summarize()
				printKeyValue("ID", s.ID)
				if s.Source != "" {
					printKeyValue("Source", s.Source)
				}
				printKeyValue("Passes", fmt.Sprint(s.Passes))
				printKeyValue("Positions", fmt.Sprint(sum.Positions))
				printKeyValue("Orders", fmt.Sprint(sum.Orders))
				if len(sum.TopLevel) > 0 {
					printKeyValue("Top level", strings.Join(sum.TopLevel, ", "))
				}
				printKeyValue("Updated", s.UpdatedAt.Local().Format(time.DateTime))
				printKeyValue("Expires", s.ExpiresAt.Local().Format(time.DateTime))
				return nil
			})
		},
	}
}

func (c *CLI) sessionClearCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [id|dir]",
		Short: "Delete a session, or all of them with --all",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return errors.New(errors.ErrCodeInvalidInput, "give a session id or --all")
			}
			return c.withSessions(cmd.Context(), func(store session.Store) error {
				ctx := cmd.Context()
				if !all {
					id, err := sessionArg(args[0])
					if err != nil {
						return err
					}
					if err := store.Delete(ctx, id); err != nil {
						return err
					}
					observability.Session().OnSessionDelete(ctx, id)
					printSuccess("Cleared session %s", id)
					return nil
				}

				sessions, err := store.List(ctx)
				if err != nil {
					return err
				}
				for _, s := range sessions {
					if err := store.Delete(ctx, s.ID); err != nil {
						return err
					}
					observability.Session().OnSessionDelete(ctx, s.ID)
				}
				printSuccess("Cleared %d sessions", len(sessions))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "delete every session")
	return cmd
}

func (c *CLI) sessionPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the session directory of the file backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withSessions(cmd.Context(), func(store session.Store) error {
				fs, ok := store.(*session.FileStore)
				if !ok {
					return errors.New(errors.ErrCodeUnsupported, "session backend has no directory")
				}
				fmt.Println(fs.Path())
				return nil
			})
		},
	}
}

// sessionArg accepts a session id or a path whose derived id is used.
func sessionArg(arg string) (string, error) {
	if errors.ValidateSessionID(arg) == nil {
		return arg, nil
	}
	id, err := sourceSessionID(pipeline.Options{Root: arg})
	if err != nil {
		return "", err
	}
	return id, nil
}
