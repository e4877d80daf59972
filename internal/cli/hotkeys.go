package cli

import (
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dshills/hyprtune/internal/engine"
	"github.com/dshills/hyprtune/internal/hotkey"
	"github.com/dshills/hyprtune/internal/recommend"
)

func newHotkeysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotkeys",
		Short: "List hotkey overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				entries, initiators := e.Hotkeys()
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, SubtitleStyle.Render("no hotkey overrides"))
					return nil
				}
				for _, entry := range entries {
					fmt.Fprintf(out, "%s %s %s %s %s\n",
						column(KeyStyle.Render(entry.ID), 38),
						column(entry.Target(), 28),
						column(string(entry.Action)+" "+entry.Dispatcher+" "+entry.Args, 36),
						column(hotkeyScope(entry), 16),
						SubtitleStyle.Render(initiators[entry.ID]))
				}
				return nil
			})
		},
	}

	cmd.AddCommand(newHotkeyAddCmd(a), newHotkeyRemoveCmd(a))
	return cmd
}

func hotkeyScope(entry hotkey.Entry) string {
	if entry.IsGlobal {
		return "global"
	}
	return "profile:" + entry.Profile
}

func newHotkeyAddCmd(a *app) *cobra.Command {
	var (
		modifiers []string
		key       string
		bindType  string
		args      string
		global    bool
		unbind    bool
	)

	cmd := &cobra.Command{
		Use:   "add <dispatcher>",
		Short: "Add a hotkey override",
		Long: `Add a hotkey override to the global layer or the active profile.

Examples:
  hyprtune hotkeys add exec --mods SUPER --key D --args "wofi --show drun" --global
  hyprtune hotkeys add killactive --mods SUPER,SHIFT --key Q -p nord
  hyprtune hotkeys add exec --mods SUPER --key L --unbind --global`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			if !recommend.BindType(bindType).Valid() {
				return oops.In("cli").With("bind", bindType).Errorf("unknown bind type %q", bindType)
			}

			action := hotkey.ActionAdd
			if unbind {
				action = hotkey.ActionRemove
			}

			return a.withEngine(func(e *engine.Engine) error {
				entry, err := e.AddHotkey(hotkey.Entry{
					Dispatcher: pos[0],
					Args:       args,
					Action:     action,
					IsGlobal:   global,
					Metadata: hotkey.Metadata{
						Modifiers: modifiers,
						Key:       key,
						BindType:  bindType,
					},
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
					SuccessStyle.Render("added"), KeyStyle.Render(entry.ID), entry.Target())
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&modifiers, "mods", nil, "modifier keys, comma separated")
	cmd.Flags().StringVar(&key, "key", "", "key name")
	cmd.Flags().StringVar(&bindType, "bind", string(recommend.BindNormal), "bind keyword (bind, bindm, binde, ...)")
	cmd.Flags().StringVar(&args, "args", "", "dispatcher arguments")
	cmd.Flags().BoolVar(&global, "global", false, "add to the global layer instead of the active profile")
	cmd.Flags().BoolVar(&unbind, "unbind", false, "suppress the binding instead of adding it")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newHotkeyRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"remove"},
		Short:   "Remove hotkey overrides",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, ids []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				for _, id := range ids {
					if err := e.RemoveHotkey(id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SuccessStyle.Render("removed"), KeyStyle.Render(id))
				}
				return nil
			})
		},
	}
}
