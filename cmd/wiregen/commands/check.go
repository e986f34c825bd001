package commands

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/teranos/wiregen/codegen"
	"github.com/teranos/wiregen/config"
	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/model"
)

var (
	checkModel  string
	checkConfig string
	checkOutput string
)

// CheckCmd verifies that generated output matches the current model.
var CheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify generated output is current",
	Long: `Regenerate the client in memory and compare it against the output
directory on disk.

Exits 0 when every generated file is present and identical, 1 when any
file is missing or differs, and 2 when generation itself fails. CI
pipelines run this to catch clients that drifted from their model.`,
	RunE: runCheck,
}

func init() {
	CheckCmd.Flags().StringVarP(&checkModel, "model", "m", "", "Shape-model document (.json or .yaml)")
	CheckCmd.Flags().StringVarP(&checkConfig, "config", "c", "", "Config file (default: discover wiregen.{toml,yaml,json})")
	CheckCmd.Flags().StringVarP(&checkOutput, "output", "o", ".", "Output directory to compare against")
	CheckCmd.MarkFlagRequired("model")
}

func runCheck(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(checkConfig)
	if err != nil {
		return err
	}
	m, err := model.Load(checkModel)
	if err != nil {
		return err
	}

	mem := afero.NewMemMapFs()
	generator := codegen.NewGenerator(mem, checkOutput)
	results, err := generator.Run(m, settings)
	if err != nil {
		return err
	}

	var stale []string
	for _, res := range results {
		for _, name := range res.Files {
			path := filepath.Join(res.OutputDir, name)
			want, err := afero.ReadFile(mem, path)
			if err != nil {
				return err
			}
			have, err := os.ReadFile(path)
			switch {
			case os.IsNotExist(err):
				stale = append(stale, "missing "+path)
			case err != nil:
				return err
			case !bytes.Equal(want, have):
				stale = append(stale, "stale   "+path)
			}
		}
	}

	if len(stale) > 0 {
		for _, line := range stale {
			pterm.Printf("%s %s\n", pterm.Red("✗"), line)
		}
		return errors.Wrapf(errors.ErrStaleOutput, "%d generated files are out of date, run wiregen generate", len(stale))
	}

	pterm.Printf("%s %d generated files are current\n", pterm.Green("✓"), countFiles(results))
	return nil
}

func countFiles(results []codegen.Result) int {
	var n int
	for _, res := range results {
		n += len(res.Files)
	}
	return n
}
