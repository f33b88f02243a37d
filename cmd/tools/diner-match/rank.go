// cmd/tools/diner-match/rank.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"diner-matching/internal/matching"
)

func newRankCmd(opts *options) *cobra.Command {
	var (
		id string
		k  int
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank every other diner in the file for one seeker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			diners, scorer, err := opts.load(cmd)
			if err != nil {
				return err
			}
			seeker, err := findDiner(diners, id)
			if err != nil {
				return err
			}

			ranked := scorer.RankCandidates(seeker, diners, k)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), ranked)
			}
			return printRanking(cmd, seeker.ID, ranked)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "ID of the seeking diner (required)")
	cmd.Flags().IntVarP(&k, "k", "k", matching.DefaultTopK, "Number of candidates to return")
	if err := cmd.MarkFlagRequired("id"); err != nil {
		panic(fmt.Sprintf("failed to mark id flag as required: %v", err))
	}
	return cmd
}

func printRanking(cmd *cobra.Command, seekerID string, ranked []matching.ScoredCandidate) error {
	out := cmd.OutOrStdout()
	if len(ranked) == 0 {
		_, err := fmt.Fprintf(out, "No candidates for %s\n", seekerID)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headerColor.Fprintln(tw, "#\tDINER\tRECIP\tP(U->V)\tP(V->U)")
	for i, c := range ranked {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.4f\t%.4f\n",
			i+1, c.Diner.ID, scoreColor(c.Recip).Sprintf("%.4f", c.Recip), c.PUV, c.PVU)
	}
	return tw.Flush()
}
