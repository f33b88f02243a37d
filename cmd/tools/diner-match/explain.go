// cmd/tools/diner-match/explain.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"diner-matching/internal/matching"
)

type explainResult struct {
	A        string                 `json:"a"`
	B        string                 `json:"b"`
	PUV      float64                `json:"p_uv"`
	PVU      float64                `json:"p_vu"`
	Recip    float64                `json:"recip"`
	Features matching.Features      `json:"features"`
	Reasons  []matching.MatchReason `json:"reasons"`
}

func newExplainCmd(opts *options) *cobra.Command {
	var aID, bID string
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Score one pair and list why they match",
		RunE: func(cmd *cobra.Command, _ []string) error {
			diners, scorer, err := opts.load(cmd)
			if err != nil {
				return err
			}
			u, err := findDiner(diners, aID)
			if err != nil {
				return err
			}
			v, err := findDiner(diners, bID)
			if err != nil {
				return err
			}

			puv, pvu := scorer.LikeProbability(u, v), scorer.LikeProbability(v, u)
			res := explainResult{
				A:        u.ID,
				B:        v.ID,
				PUV:      puv,
				PVU:      pvu,
				Recip:    puv * pvu,
				Features: matching.ExtractFeatures(u, v),
				Reasons:  matching.Explain(u, v, puv, pvu),
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			out := cmd.OutOrStdout()
			headerColor.Fprintf(out, "%s <-> %s\n", res.A, res.B)
			fmt.Fprintf(out, "recip %s  (p_uv %.4f, p_vu %.4f)\n", scoreColor(res.Recip).Sprintf("%.4f", res.Recip), puv, pvu)
			if len(res.Reasons) == 0 {
				_, err = fmt.Fprintln(out, "No shared preferences.")
				return err
			}
			for _, r := range res.Reasons {
				fmt.Fprintf(out, "  - %s\n", r.Description)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&aID, "a", "", "ID of the first diner (required)")
	cmd.Flags().StringVar(&bID, "b", "", "ID of the second diner (required)")
	for _, name := range []string{"a", "b"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
	return cmd
}
