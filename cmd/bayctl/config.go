package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cargo-console/internal/bay"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	server      string
	token       string
	room        int
	user        int
	layout      string
	pageSize    int
	page        int
	policy      string
	saveTimeout time.Duration
	verbose     bool
}

func (c *Config) validate() error {
	if c.server == "" {
		return errors.New("--server is required")
	}
	if c.token == "" {
		return errors.New("--token is required")
	}
	if c.room < 1 || c.user < 1 {
		return fmt.Errorf("--room and --user must be positive, got %d and %d", c.room, c.user)
	}
	if c.layout == "" {
		return errors.New("--layout is required")
	}
	if c.pageSize < 1 {
		return fmt.Errorf("--page-size must be at least 1, got %d", c.pageSize)
	}
	if _, err := bay.ParseOccupancyPolicy(c.policy); err != nil {
		return err
	}
	return nil
}

func newRootCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BAYCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "bayctl",
		Short: "Participant console for the cargo ship-bay simulation.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(cmd.ErrOrStderr(), cfg.verbose)
			return cfg.validate()
		},
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.server, "server", "s", "http://localhost:8080", "console server base URL (env: BAYCTL_SERVER)")
	fs.StringVarP(&cfg.token, "token", "t", "", "JWT issued to the participant (env: BAYCTL_TOKEN)")
	fs.IntVarP(&cfg.room, "room", "r", 0, "room id (env: BAYCTL_ROOM)")
	fs.IntVarP(&cfg.user, "user", "u", 0, "participant user id (env: BAYCTL_USER)")
	fs.StringVarP(&cfg.layout, "layout", "l", "layout.yaml", "ship layout and dock containers, YAML (env: BAYCTL_LAYOUT)")
	fs.IntVar(&cfg.pageSize, "page-size", 8, "dock slots per page (env: BAYCTL_PAGE_SIZE)")
	fs.IntVar(&cfg.page, "page", 0, "dock page to show first (env: BAYCTL_PAGE)")
	fs.StringVar(&cfg.policy, "policy", "reject", "drop onto an occupied cell: reject or evict (env: BAYCTL_POLICY)")
	fs.DurationVar(&cfg.saveTimeout, "save-timeout", 10*time.Second, "upper bound for one save request (env: BAYCTL_SAVE_TIMEOUT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: BAYCTL_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newShowCmd(cfg), newMoveCmd(cfg), newWatchCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
