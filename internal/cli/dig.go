package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/dshills/hyprtune/internal/engine"
)

func newDigCmd(a *app) *cobra.Command {
	var (
		hotkeys  []string
		all      bool
		keep     bool
		rollback bool
	)

	cmd := &cobra.Command{
		Use:   "dig [path]...",
		Short: "Promote profile overrides to the global layer",
		Long: `Copy overrides of the active profile into the global layer.

The global layer is snapshotted before the first change. When the command
finishes you are asked whether to roll back to that snapshot; --keep and
--rollback answer in advance.

Examples:
  hyprtune dig -p nord general:gaps_in decoration:rounding
  hyprtune dig -p nord --hotkey 6f1c... --keep
  hyprtune dig -p nord --all`,
		RunE: func(cmd *cobra.Command, paths []string) error {
			if !all && len(paths) == 0 && len(hotkeys) == 0 {
				return oops.In("cli").Errorf("nothing to dig: name parameters, pass --hotkey or use --all")
			}
			return a.withEngine(func(e *engine.Engine) error {
				s, err := e.OpenSession()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				digErr := runDig(out, s, paths, hotkeys, all)

				confirm := func() bool {
					return askYesNo(cmd.InOrStdin(), out, "Roll back these changes?")
				}
				mode := engine.CloseCancel
				switch {
				case keep:
					mode = engine.CloseSave
				case rollback:
					confirm = func() bool { return true }
				}

				rolledBack, err := s.Close(mode, confirm)
				if rolledBack {
					fmt.Fprintln(out, WarningStyle.Render("rolled back"))
				} else if err == nil && digErr == nil {
					fmt.Fprintln(out, SuccessStyle.Render("kept"))
				}
				if digErr != nil {
					return digErr
				}
				return err
			})
		},
	}

	cmd.Flags().StringSliceVar(&hotkeys, "hotkey", nil, "profile hotkey ids to promote")
	cmd.Flags().BoolVar(&all, "all", false, "promote every override and hotkey of the profile")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the changes without asking")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the changes without asking")
	cmd.MarkFlagsMutuallyExclusive("keep", "rollback")
	return cmd
}

func runDig(out io.Writer, s *engine.Session, paths, hotkeys []string, all bool) error {
	if all {
		n, err := s.DigAll()
		fmt.Fprintf(out, "%s %d entries\n", SuccessStyle.Render("promoted"), n)
		return err
	}

	for _, path := range paths {
		if err := s.DigParameter(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render("promoted"), KeyStyle.Render(path))
	}
	for _, id := range hotkeys {
		if err := s.DigHotkey(id); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s hotkey %s\n", SuccessStyle.Render("promoted"), KeyStyle.Render(id))
	}
	return nil
}

// askYesNo prompts on out and reads one answer from in. Anything but y or
// yes, including end of input, is no.
func askYesNo(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s %s ", WarningStyle.Render(question), SubtitleStyle.Render("[y/N]"))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
