package cli

import (
	"fmt"

	"github.com/pgrudzien12/pcb-maker/internal/assets"
	"github.com/pgrudzien12/pcb-maker/internal/config"
	"github.com/pgrudzien12/pcb-maker/internal/pipeline"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:          "doctor",
	Short:        "Check configuration and default pipeline health",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ok := true

		cfg, err := config.Load()
		if err != nil {
			fmt.Printf("❌ config: %v\n", err)
			return fmt.Errorf("doctor found problems")
		}
		fmt.Printf("✅ config loaded (default pipeline %q, log level %q)\n",
			cfg.DefaultPipeline, cfg.LogLevel)

		data, err := assets.LoadPipeline(cfg.DefaultPipeline)
		if err != nil {
			fmt.Printf("❌ default pipeline: %v\n", err)
			ok = false
		} else if ppl, err := pipeline.Load(data); err != nil {
			fmt.Printf("❌ default pipeline does not parse: %v\n", err)
			ok = false
		} else {
			fmt.Printf("✅ default pipeline %q: version %s, %d stages\n",
				cfg.DefaultPipeline, ppl.Version, len(ppl.Stages))
		}

		fmt.Printf("✅ %d stage types registered\n", len(pipeline.StageTypes()))

		if !ok {
			return fmt.Errorf("doctor found problems")
		}
		return nil
	},
}
