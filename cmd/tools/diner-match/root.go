// cmd/tools/diner-match/root.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"diner-matching/internal/common/config"
	"diner-matching/internal/matching"
	"diner-matching/internal/models"
)

// options are the flags shared by every subcommand.
type options struct {
	file       string
	configPath string
	asJSON     bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "diner-match",
		Short:         "Score, rank and pair solo diners from a profiles file",
		Long:          "diner-match loads diner profiles from a JSON file (an array, or an object with a \"diners\" array) and runs the compatibility scorer over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if opts.noColor || opts.asJSON {
				color.NoColor = true
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "", "Path to the diner profiles JSON file, or - for stdin (required)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Optional YAML file whose matching.weights override the defaults")
	flags.BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	if err := root.MarkPersistentFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}

	root.AddCommand(newRankCmd(opts), newPairCmd(opts), newExplainCmd(opts))
	return root
}

type dinersFile struct {
	Diners []models.DinerProfile `json:"diners"`
}

// loadDiners reads and validates the profiles file.
func loadDiners(path string, stdin io.Reader) ([]models.DinerProfile, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read diners file %s: %w", path, err)
	}

	var diners []models.DinerProfile
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(raw, &diners)
	} else {
		var wrapped dinersFile
		err = json.Unmarshal(raw, &wrapped)
		diners = wrapped.Diners
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse diners file %s: %w", path, err)
	}

	seen := make(map[string]int, len(diners))
	for i := range diners {
		if err := diners[i].Validate(); err != nil {
			return nil, fmt.Errorf("diner #%d: %w", i, err)
		}
		if first, dup := seen[diners[i].ID]; dup {
			return nil, fmt.Errorf("diner #%d: id %q already used by diner #%d", i, diners[i].ID, first)
		}
		seen[diners[i].ID] = i
	}
	return diners, nil
}

// scorer builds a Scorer from the config file's weights, or the defaults.
func (o *options) scorer() (*matching.Scorer, error) {
	if o.configPath == "" {
		return matching.DefaultScorer(), nil
	}
	w, err := config.LoadWeights(o.configPath)
	if err != nil {
		return nil, err
	}
	return matching.NewScorer(w), nil
}

func (o *options) load(cmd *cobra.Command) ([]models.DinerProfile, *matching.Scorer, error) {
	diners, err := loadDiners(o.file, cmd.InOrStdin())
	if err != nil {
		return nil, nil, err
	}
	s, err := o.scorer()
	if err != nil {
		return nil, nil, err
	}
	return diners, s, nil
}

func findDiner(diners []models.DinerProfile, id string) (*models.DinerProfile, error) {
	for i := range diners {
		if diners[i].ID == id {
			return &diners[i], nil
		}
	}
	return nil, fmt.Errorf("diner %q not found", id)
}

func splitIDs(list string) []string {
	var out []string
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	headerColor = color.New(color.Bold)
	strongColor = color.New(color.FgGreen)
	fairColor   = color.New(color.FgYellow)
	weakColor   = color.New(color.FgHiBlack)
)

// scoreColor shades a reciprocal score.
func scoreColor(recip float64) *color.Color {
	switch {
	case recip >= 0.8:
		return strongColor
	case recip >= 0.5:
		return fairColor
	default:
		return weakColor
	}
}
