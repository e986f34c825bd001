package commands

import (
	"encoding/json"
	"os"
	"os/signal"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/teranos/wiregen/codegen"
	"github.com/teranos/wiregen/config"
	"github.com/teranos/wiregen/logger"
	"github.com/teranos/wiregen/model"
)

var (
	generateModel  string
	generateConfig string
	generateOutput string
	generateWatch  bool
)

// GenerateCmd generates client source from a shape model.
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate RPC client source from a shape model",
	Long: `Generate typed RPC client source code from a shape-model document.

Settings come from a wiregen config file, WIREGEN_* environment variables,
and built-in defaults, in that order of precedence. When the config names
no single service every service in the model is generated, each into its
own subdirectory of the output directory; set WIREGEN_SERVICES to narrow
the set.

Examples:
  wiregen generate --model api.json
  wiregen generate --model api.json --config wiregen.toml --output gen/
  wiregen generate --model api.json --watch`,
	RunE: runGenerate,
}

func init() {
	GenerateCmd.Flags().StringVarP(&generateModel, "model", "m", "", "Shape-model document (.json or .yaml)")
	GenerateCmd.Flags().StringVarP(&generateConfig, "config", "c", "", "Config file (default: discover wiregen.{toml,yaml,json})")
	GenerateCmd.Flags().StringVarP(&generateOutput, "output", "o", ".", "Output directory")
	GenerateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Regenerate whenever the model or config changes")
	GenerateCmd.MarkFlagRequired("model")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if err := generateOnce(jsonOutput); err != nil {
		if !generateWatch {
			return err
		}
		logger.Errorw("generation failed, waiting for changes", "error", err)
	}
	if !generateWatch {
		return nil
	}

	paths := []string{generateModel}
	if generateConfig != "" {
		paths = append(paths, generateConfig)
	} else if found, ok := config.Discover("."); ok {
		paths = append(paths, found)
	}

	watcher, err := config.NewWatcher(paths, func() {
		if err := generateOnce(jsonOutput); err != nil {
			logger.Errorw("regeneration failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	watcher.Start()
	defer watcher.Stop()

	pterm.Printf("Watching %d paths for changes, ctrl-c to stop\n", len(paths))
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt
	return nil
}

func generateOnce(jsonOutput bool) error {
	settings, err := config.Load(generateConfig)
	if err != nil {
		return err
	}
	m, err := model.Load(generateModel)
	if err != nil {
		return err
	}

	generator := codegen.NewGenerator(afero.NewOsFs(), generateOutput)
	// A batch can fail for one service and still generate the rest; the
	// summary covers what was written before the error surfaces.
	results, err := generator.Run(m, settings)

	if jsonOutput {
		if len(results) > 0 {
			if encErr := json.NewEncoder(os.Stdout).Encode(results); encErr != nil {
				return encErr
			}
		}
		return err
	}
	for _, res := range results {
		pterm.Printf("%s Generated %s in %s (%d files, %s)\n",
			pterm.Green("✓"),
			pterm.Cyan(string(res.Service)),
			res.OutputDir,
			len(res.Files),
			res.Duration.Round(time.Millisecond))
	}
	return err
}
