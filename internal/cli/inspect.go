package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/pointoforder/internal/card"
	"github.com/roach88/pointoforder/internal/rules"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	SessionFlags
}

// RuleInfo describes one rule in inspect output.
type RuleInfo struct {
	Kind        string `json:"kind"`
	Active      bool   `json:"active"`
	Description string `json:"description"`
}

// InspectResult is the JSON form of inspect output.
type InspectResult struct {
	Session    string      `json:"session"`
	Serial     string      `json:"serial"`
	Seed       int64       `json:"seed"`
	Modulus    int         `json:"modulus"`
	Distance   int         `json:"distance"`
	Rules      []RuleInfo  `json:"rules"`
	Pile       []card.Card `json:"pile"`
	Acceptable []card.Card `json:"acceptable"`
	Decoys     []card.Card `json:"decoys"`
	Attempts   int         `json:"attempts"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Generate a puzzle and show its solution",
		Long: `Generate the puzzle for a serial and print everything a player is
meant to deduce: the active and inactive rules, the pile, the cards that
may follow it, and the near-miss decoys.

With the same --serial and --seed, inspect shows the puzzle that play and
serve would deal.

Examples:
  pointoforder inspect --serial AB1CD2
  pointoforder inspect --serial AB1CD2 --seed 7 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return formatter(opts.RootOptions, cmd).Fail(runInspect(opts, cmd))
		},
	}

	opts.bind(cmd, false)
	return cmd
}

func runInspect(opts *InspectOptions, cmd *cobra.Command) error {
	cfg, err := opts.resolve()
	if err != nil {
		return err
	}
	cfg.Database = ""
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	ls, err := startSession(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer ls.Close()

	p := ls.Puzzle
	f := formatter(opts.RootOptions, cmd)
	f.VerboseLog("Generated puzzle for %s in %d attempt(s)", p.Params.Serial, p.Attempts)
	if f.JSON() {
		result := InspectResult{
			Session:    ls.ID,
			Serial:     p.Params.Serial,
			Seed:       ls.Seed,
			Modulus:    p.Params.Modulus,
			Distance:   p.Params.Distance,
			Pile:       p.Pile,
			Acceptable: p.Acceptable,
			Decoys:     p.Decoys,
			Attempts:   p.Attempts,
		}
		result.Rules = append(ruleInfos(p.Active, true), ruleInfos(p.Inactive, false)...)
		return f.Success(result)
	}

	renderPuzzle(cmd.OutOrStdout(), ls.ID, ls.Seed, p)
	return nil
}

func ruleInfos(rs []rules.Rule, active bool) []RuleInfo {
	out := make([]RuleInfo, len(rs))
	for i, r := range rs {
		out[i] = RuleInfo{Kind: r.Kind.String(), Active: active, Description: r.Describe()}
	}
	return out
}
