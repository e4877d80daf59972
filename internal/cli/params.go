package cli

import (
	"fmt"
	"sort"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/hyprtune/internal/engine"
	"github.com/dshills/hyprtune/internal/override"
)

const (
	layerGlobal  = "global"
	layerProfile = "profile"
)

func newParamsCmd(a *app) *cobra.Command {
	var (
		overriddenOnly bool
		category       string
	)

	cmd := &cobra.Command{
		Use:   "params",
		Short: "List parameters with their effective values",
		Long: `List catalog parameters, overridden ones first, then by popularity.

The scope column shows where the effective value comes from: the active
profile, the global layer, or the catalog default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				out := cmd.OutOrStdout()
				for _, p := range e.SortedParameters() {
					if category != "" && p.Category != category {
						continue
					}
					value, scope, overridden := e.EffectiveValue(p.Path)
					if overriddenOnly && !overridden {
						continue
					}

					source := SubtitleStyle.Render("default")
					if overridden {
						source = WarningStyle.Render(scope.String())
					}
					fmt.Fprintf(out, "%s %s %s\n",
						column(KeyStyle.Render(p.Path), 36),
						column(formatValue(value), 20),
						source)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&overriddenOnly, "overridden", false, "only list overridden parameters")
	cmd.Flags().StringVar(&category, "category", "", "only list parameters of this category")
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "set <path> <value>",
		Short: "Override a parameter",
		Long: `Override a parameter in the global layer or the active profile.

The value is parsed as a YAML scalar, so 4 is an integer, true is a boolean
and "4" is a string.

Examples:
  hyprtune set general:gaps_in 4
  hyprtune set --layer profile -p nord decoration:rounding 12`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseLayer(layer)
			if err != nil {
				return err
			}
			value, err := parseValue(args[1])
			if err != nil {
				return err
			}
			return a.withEngine(func(e *engine.Engine) error {
				if err := e.SetOverride(scope, args[0], value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n",
					SuccessStyle.Render("set"), KeyStyle.Render(args[0]), formatValue(value))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&layer, "layer", layerGlobal, "layer to write (global or profile)")
	return cmd
}

func newUnsetCmd(a *app) *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "unset <path>",
		Short: "Remove a parameter override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := parseLayer(layer)
			if err != nil {
				return err
			}
			return a.withEngine(func(e *engine.Engine) error {
				if err := e.ClearOverride(scope, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SuccessStyle.Render("unset"), KeyStyle.Render(args[0]))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&layer, "layer", layerGlobal, "layer to clear (global or profile)")
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [name]",
		Short: "Show the overrides of a profile",
		Long:  `Show the overrides of the named profile, or of the active profile when no name is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				if len(args) == 1 {
					e.SetProfile(args[0])
				}
				name := e.CurrentProfile()
				if name == "" {
					return engine.ErrNoProfile
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, TitleStyle.Render("profile "+name))

				values := e.ProfileOverrides()
				if len(values) == 0 {
					fmt.Fprintln(out, SubtitleStyle.Render("  no overrides"))
					return nil
				}
				for _, path := range sortedKeys(values) {
					fmt.Fprintf(out, "  %s %s\n", column(KeyStyle.Render(path), 36), formatValue(values[path]))
				}
				return nil
			})
		},
	}
}

// parseLayer maps the --layer flag to a scope. The profile scope is left
// unnamed so the engine resolves it to the active profile.
func parseLayer(layer string) (override.Scope, error) {
	switch layer {
	case layerGlobal:
		return override.Global, nil
	case layerProfile:
		return override.Profile(""), nil
	default:
		return override.Scope{}, oops.In("cli").With("layer", layer).Errorf("unknown layer %q, want global or profile", layer)
	}
}

// parseValue decodes a command line value as a YAML scalar.
func parseValue(s string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return nil, oops.In("cli").With("value", s).Wrapf(err, "parsing value")
	}
	switch v.(type) {
	case nil:
		return s, nil
	case map[string]any, []any:
		return nil, oops.In("cli").With("value", s).Errorf("value must be a scalar")
	}
	return v, nil
}

func formatValue(v any) string {
	if v == nil {
		return SubtitleStyle.Render("-")
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
