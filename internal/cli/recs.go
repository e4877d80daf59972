package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/hyprtune/internal/engine"
	"github.com/dshills/hyprtune/internal/recommend"
)

func newRecsCmd(a *app) *cobra.Command {
	var appliedOnly bool

	cmd := &cobra.Command{
		Use:   "recs",
		Short: "List recommendations by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				out := cmd.OutOrStdout()
				for _, cat := range e.RecommendationsByCategory() {
					var lines []string
					for _, rec := range cat.Recommendations {
						applied := e.IsRecommendationApplied(rec)
						if appliedOnly && !applied {
							continue
						}
						lines = append(lines, recLine(e, rec, applied))
					}
					if len(lines) == 0 {
						continue
					}
					fmt.Fprintln(out, TitleStyle.Render(cat.Name))
					for _, l := range lines {
						fmt.Fprintln(out, l)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&appliedOnly, "applied", false, "only list applied recommendations")
	return cmd
}

func recLine(e *engine.Engine, rec recommend.Recommendation, applied bool) string {
	info := rec.Info()
	line := fmt.Sprintf("  %s %s %s %s",
		appliedMark(applied),
		column(KeyStyle.Render(info.ID), 28),
		column(info.Title, 36),
		SubtitleStyle.Render(string(rec.Kind())))

	if ws := e.AppliedWorkspaces(info.ID); len(ws) > 0 {
		line += SubtitleStyle.Render(" workspaces " + joinInts(ws))
	}
	if len(info.Dependents) > 0 {
		line += SubtitleStyle.Render(" + " + strings.Join(info.Dependents, ", "))
	}
	return line
}

func newApplyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "apply <id>...",
		Short: "Apply recommendations and their dependents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				for _, id := range args {
					if err := e.Apply(id); err != nil {
						return err
					}
					reportCascade(cmd.OutOrStdout(), e, id, "applied")
				}
				return nil
			})
		},
	}
}

func newRevertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "revert <id>...",
		Short: "Revert recommendations and their dependents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *engine.Engine) error {
				for _, id := range args {
					if err := e.Revert(id); err != nil {
						return err
					}
					reportCascade(cmd.OutOrStdout(), e, id, "reverted")
				}
				return nil
			})
		},
	}
}

// reportCascade prints id and its direct dependents.
func reportCascade(out io.Writer, e *engine.Engine, id, verb string) {
	fmt.Fprintf(out, "%s %s\n", SuccessStyle.Render(verb), KeyStyle.Render(id))
	rec, ok := e.Catalog().Recommendation(id)
	if !ok {
		return
	}
	for _, dep := range rec.Info().Dependents {
		fmt.Fprintf(out, "  %s %s\n", SubtitleStyle.Render("with"), KeyStyle.Render(dep))
	}
}

func newWorkspacesCmd(a *app) *cobra.Command {
	var (
		selection []int
		toggle    int
		clearAll  bool
	)

	cmd := &cobra.Command{
		Use:   "workspaces <id>",
		Short: "Show or change the workspaces of a workspace rule",
		Long: `Show the workspaces a workspace rule offers and which of them are applied.

Examples:
  hyprtune workspaces workspace_float_all
  hyprtune workspaces workspace_float_all --set 1,3
  hyprtune workspaces workspace_float_all --toggle 2
  hyprtune workspaces workspace_float_all --clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.withEngine(func(e *engine.Engine) error {
				switch {
				case cmd.Flags().Changed("set"):
					if err := e.SetWorkspaces(id, selection); err != nil {
						return err
					}
				case cmd.Flags().Changed("toggle"):
					if err := e.ToggleWorkspace(id, toggle); err != nil {
						return err
					}
				case clearAll:
					if err := e.SetWorkspaces(id, nil); err != nil {
						return err
					}
				}
				return printWorkspaces(cmd.OutOrStdout(), e, id)
			})
		},
	}

	cmd.Flags().IntSliceVar(&selection, "set", nil, "replace the selection")
	cmd.Flags().IntVar(&toggle, "toggle", 0, "add or remove one workspace")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "remove every workspace")
	cmd.MarkFlagsMutuallyExclusive("set", "toggle", "clear")
	return cmd
}

func printWorkspaces(out io.Writer, e *engine.Engine, id string) error {
	rec, ok := e.Catalog().Recommendation(id)
	if !ok {
		return engine.ErrUnknownRecommendation
	}
	rule, ok := rec.(*recommend.WorkspaceRule)
	if !ok {
		return engine.ErrNotWorkspaceRule
	}

	selected := make(map[int]bool)
	for _, ws := range e.AppliedWorkspaces(id) {
		selected[ws] = true
	}

	fmt.Fprintln(out, TitleStyle.Render(rule.Title))
	for _, ws := range rule.Workspaces {
		fmt.Fprintf(out, "  %s %s %s\n",
			appliedMark(selected[ws]),
			column(strconv.Itoa(ws), 4),
			SubtitleStyle.Render(rule.Line(ws)))
	}
	return nil
}

func joinInts(ints []int) string {
	parts := make([]string, len(ints))
	for i, n := range ints {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
