package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"cargo-console/internal/bay"
	"cargo-console/internal/participant"
	"cargo-console/internal/shared/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func configureLogging(w io.Writer, verbose bool) {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger.Configure(w, level, false)
}

// openSession activates a participant session for the configured room.
func openSession(ctx context.Context, cfg *Config, onChange func()) (*participant.Session, error) {
	layout, err := participant.LoadLayout(cfg.layout)
	if err != nil {
		return nil, err
	}
	policy, err := bay.ParseOccupancyPolicy(cfg.policy)
	if err != nil {
		return nil, err
	}

	s, err := participant.NewSession(participant.Options{
		RoomID:      cfg.room,
		UserID:      cfg.user,
		Layout:      layout,
		PageSize:    cfg.pageSize,
		Policy:      policy,
		Store:       participant.NewHTTPStore(cfg.server, cfg.token, nil),
		Events:      participant.NewWebsocketSource(cfg.server, cfg.token),
		SaveTimeout: cfg.saveTimeout,
		OnChange:    onChange,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Activate(ctx); err != nil {
		return nil, err
	}
	if cfg.page > 0 {
		if err := s.SetPage(cfg.page); err != nil {
			s.Deactivate()
			return nil, err
		}
	}
	return s, nil
}

// closeSession leaves the room and waits for queued saves.
func closeSession(ctx context.Context, s *participant.Session) error {
	s.Deactivate()
	return s.Drain(context.WithoutCancel(ctx))
}

func newShowCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current dock page and bays.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			render(cmd.OutOrStdout(), s.View())
			return closeSession(cmd.Context(), s)
		},
	}
}

func newMoveCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "move <container> <target>",
		Short: "Move a container to dock:<slot> or bay:<bay>:<row>:<column>.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}

			moveErr := move(s, cmd.OutOrStdout(), args[0], args[1])
			if moveErr == nil {
				render(cmd.OutOrStdout(), s.View())
			}
			if err := closeSession(cmd.Context(), s); err != nil {
				return err
			}
			return moveErr
		},
	}
}

func newWatchCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the room and accept commands on stdin until removed or interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			redraw := make(chan struct{}, 1)
			s, err := openSession(cmd.Context(), cfg, func() {
				select {
				case redraw <- struct{}{}:
				default:
				}
			})
			if err != nil {
				return err
			}

			w := &watcher{session: s, in: cmd.InOrStdin(), out: out, redraw: redraw}
			return w.run(cmd.Context())
		},
	}
}
