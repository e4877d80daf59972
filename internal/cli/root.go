// Package cli implements the hyprtune command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dshills/hyprtune/internal/catalog"
	"github.com/dshills/hyprtune/internal/config"
	"github.com/dshills/hyprtune/internal/engine"
	"github.com/dshills/hyprtune/internal/logging"
	"github.com/dshills/hyprtune/internal/persist"
)

var log = logging.For("cli")

// Version information (set via ldflags during build).
var (
	Version = "dev"
	Commit  = "unknown"
)

// app holds the flags shared by every command and the state built from them.
type app struct {
	configFile string
	stateDir   string
	profile    string
	logLevel   string

	cfg *config.Config
}

// session is an opened engine plus the gateways behind it.
type session struct {
	engine *engine.Engine
	files  *persist.FileGateway
	close  func() error
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "hyprtune",
		Short: "Layered overrides and recommendations for Hyprland",
		Long: TitleStyle.Render("hyprtune") + SubtitleStyle.Render(" - layered overrides and recommendations for Hyprland") + `

Overrides live in a global layer shared by every profile and in one layer per
profile. Recommendations are curated changes that can be applied and reverted
as a unit, together with everything that depends on them.

` + SubtitleStyle.Render("Examples:") + `
  hyprtune params                     List parameters by popularity
  hyprtune recs                       List recommendations by category
  hyprtune apply mouse_movewindow     Apply a recommendation and its dependents
  hyprtune dig --profile nord --all   Promote a profile's overrides to global`,
		Version:       fmt.Sprintf("%s (commit: %s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/hyprtune/config.yaml)")
	root.PersistentFlags().StringVar(&a.stateDir, "state-dir", "", "directory holding the override documents")
	root.PersistentFlags().StringVarP(&a.profile, "profile", "p", "", "active profile")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newParamsCmd(a),
		newSetCmd(a),
		newUnsetCmd(a),
		newProfileCmd(a),
		newRecsCmd(a),
		newApplyCmd(a),
		newRevertCmd(a),
		newWorkspacesCmd(a),
		newHotkeysCmd(a),
		newDigCmd(a),
		newWatchCmd(a),
	)

	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, ErrorStyle.Render("Error: ")+err.Error())
		return 1
	}
	return 0
}

// loadConfig reads the config and applies flag overrides.
func (a *app) loadConfig() error {
	var opts []config.Option
	if a.configFile != "" {
		opts = append(opts, config.WithFile(a.configFile))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return err
	}

	if a.stateDir != "" {
		cfg.StateDir = a.stateDir
	}
	if a.profile != "" {
		cfg.Profile = a.profile
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	logging.SetLevel(cfg.LogLevel)

	a.cfg = cfg
	log.WithField("file", cfg.File).WithField("state_dir", cfg.StateDir).Debug("configuration loaded")
	return nil
}

// open builds the engine over the configured state directory. The returned
// close function flushes debounced writes.
func (a *app) open(extra ...engine.Option) (*session, error) {
	cat, err := catalog.Load(a.cfg.Catalogs...)
	if err != nil {
		return nil, err
	}

	files := persist.NewFileGateway(a.cfg.StateDir)
	var gw persist.Gateway = files
	closeFn := func() error { return nil }

	if a.cfg.Persist.Debounce > 0 {
		d := persist.NewDebounced(files, a.cfg.Persist.Debounce)
		gw = d
		closeFn = d.Close
	}

	opts := []engine.Option{engine.WithEmitter(a.cfg.Emitter)}
	if a.cfg.Profile != "" {
		opts = append(opts, engine.WithProfile(a.cfg.Profile))
	}
	opts = append(opts, extra...)

	return &session{
		engine: engine.New(cat, gw, opts...),
		files:  files,
		close:  closeFn,
	}, nil
}

// withEngine opens the engine, runs fn and flushes pending writes.
func (a *app) withEngine(fn func(e *engine.Engine) error) error {
	s, err := a.open()
	if err != nil {
		return err
	}
	return errors.Join(fn(s.engine), s.close())
}
