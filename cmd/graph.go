package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/screener/internal/ai"
	"github.com/spigell/screener/internal/stages"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the stages and transitions of a pipeline variant",
	PreRun: func(cmd *cobra.Command, _ []string) {
		viper.BindPFlag("pipeline.variant", cmd.Flags().Lookup("variant"))
	},
	Run: func(_ *cobra.Command, _ []string) {
		config, err := getConfig()
		if err != nil {
			log.Fatalf("getting a config: %s", err)
		}

		// Compiling the plan needs no generator or lookups.
		set := stages.New(stages.Deps{Caller: ai.NewCaller(nil, nil, 0, 0)}, config.StageConfig())
		pipe, err := stages.Build(config.Pipeline.Variant, set)
		if err != nil {
			log.Fatalf("building the pipeline: %s", err)
		}

		fmt.Printf("%s (entry: %s)\n", pipe.Name(), pipe.Plan().Entry())
		for _, line := range pipe.Plan().Describe() {
			fmt.Println("  " + line)
		}
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().String("variant", "", "pipeline variant: linear or extended")
}
