// cmd/tools/diner-match/pair.go
package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"diner-matching/internal/matching"
	"diner-matching/internal/models"
)

type pairResult struct {
	Pairings  []matching.Pairing `json:"pairings"`
	Unmatched []string           `json:"unmatched"`
	Proposals int                `json:"proposals"`
}

func newPairCmd(opts *options) *cobra.Command {
	var (
		aIDs, bIDs string
		split      bool
	)
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Compute a stable one-to-one pairing between two groups",
		Long:  "Pairs group A with group B by deferred acceptance, A proposing. Groups come from --a/--b ID lists, or --split divides the file into a first and second half.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			diners, scorer, err := opts.load(cmd)
			if err != nil {
				return err
			}

			setA, setB, err := pairSides(diners, aIDs, bIDs, split)
			if err != nil {
				return err
			}

			pairings, stats := scorer.DailyMostCompatibleWithStats(setA, setB)
			res := pairResult{Pairings: pairings, Unmatched: stats.Unmatched, Proposals: stats.Proposals}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return printPairing(cmd, scorer, setA, setB, res)
		},
	}
	cmd.Flags().StringVar(&aIDs, "a", "", "Comma-separated IDs of group A (proposers)")
	cmd.Flags().StringVar(&bIDs, "b", "", "Comma-separated IDs of group B")
	cmd.Flags().BoolVar(&split, "split", false, "Use the first half of the file as A and the rest as B")
	cmd.MarkFlagsMutuallyExclusive("split", "a")
	cmd.MarkFlagsMutuallyExclusive("split", "b")
	return cmd
}

func pairSides(diners []models.DinerProfile, aIDs, bIDs string, split bool) ([]models.DinerProfile, []models.DinerProfile, error) {
	if split {
		half := len(diners) / 2
		return diners[:half], diners[half:], nil
	}
	if aIDs == "" || bIDs == "" {
		return nil, nil, errors.New("either --split or both --a and --b are required")
	}

	pick := func(list string) ([]models.DinerProfile, error) {
		var out []models.DinerProfile
		seen := make(map[string]bool)
		for _, id := range splitIDs(list) {
			if seen[id] {
				return nil, fmt.Errorf("diner %q listed more than once", id)
			}
			seen[id] = true
			d, err := findDiner(diners, id)
			if err != nil {
				return nil, err
			}
			out = append(out, *d)
		}
		return out, nil
	}
	setA, err := pick(aIDs)
	if err != nil {
		return nil, nil, err
	}
	setB, err := pick(bIDs)
	if err != nil {
		return nil, nil, err
	}
	return setA, setB, nil
}

func printPairing(cmd *cobra.Command, scorer *matching.Scorer, setA, setB []models.DinerProfile, res pairResult) error {
	out := cmd.OutOrStdout()
	byID := make(map[string]*models.DinerProfile, len(setA)+len(setB))
	for i := range setA {
		byID["a:"+setA[i].ID] = &setA[i]
	}
	for i := range setB {
		byID["b:"+setB[i].ID] = &setB[i]
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headerColor.Fprintln(tw, "A\tB\tRECIP")
	for _, p := range res.Pairings {
		recip := scorer.ReciprocalScore(byID["a:"+p.AID], byID["b:"+p.BID])
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.AID, p.BID, scoreColor(recip).Sprintf("%.4f", recip))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\n%d pairs, %d proposals", len(res.Pairings), res.Proposals)
	if err == nil && len(res.Unmatched) > 0 {
		_, err = fmt.Fprintf(out, ", unmatched: %s", weakColor.Sprint(fmt.Sprint(res.Unmatched)))
	}
	if err == nil {
		_, err = fmt.Fprintln(out)
	}
	return err
}
