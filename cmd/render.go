package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nowplaybot/nowplay/cli"
	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/internal/metrics"
	"github.com/nowplaybot/nowplay/internal/pp"
	"github.com/nowplaybot/nowplay/internal/render"
	"github.com/nowplaybot/nowplay/pkg/daemon"
	"github.com/nowplaybot/nowplay/pkg/models"
)

// NewRenderCmd creates the `render` command for previewing templates.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render a response template against the current game state",
		Long: `Renders a template the same way chat commands do. With no argument the
default now-playing template is used. Useful for testing templates before
putting them in nowplay.yml.

Examples:
  # Preview the default template
  nowplay render

  # Preview a custom template
  nowplay render "{artist} - {title} +{mods}"

  # Render against sample data instead of the live client
  nowplay render --sample`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRenderE,
	}

	cmd.Flags().Bool("sample", false, "Render against built-in sample data")
	cmd.Flags().Bool("pp", false, "Include a performance estimate (runs the configured calculator)")

	return cmd
}

func runRenderE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	template := config.DefaultNowPlayingTemplate
	if len(args) == 1 {
		template = args[0]
	}

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		if errors.GetCode(err) != errors.ErrCodeConfigNotFound {
			return handler.Handle(err)
		}
		cfg = &config.Config{}
		cfg.SetDefaults()
	}

	var gs *models.GameState
	if sample, _ := cmd.Flags().GetBool("sample"); sample {
		gs = sampleState()
	} else {
		client := daemon.New(cfg.Osu)
		defer client.Close()

		state, err := client.GetState(cmd.Context())
		if err != nil {
			return handler.Handle(err)
		}
		gs = state.Game
	}

	var est *models.PPEstimate
	if withPP, _ := cmd.Flags().GetBool("pp"); withPP && gs != nil && gs.Beatmap != nil {
		engine := metrics.New(pp.NewExecCalculator(cfg.Osu.PPCommand))
		est, err = engine.Estimate(cmd.Context(), gs)
		if err != nil {
			cli.GetLogger(cmd).WithError(err).Warn("Performance estimate unavailable")
		}
	}

	fmt.Println(render.Render(template, render.NewContext(gs, est)))
	return nil
}

func sampleState() *models.GameState {
	return &models.GameState{
		Client: models.ClientStable,
		Beatmap: &models.Beatmap{
			ID:             123456,
			Artist:         "Camellia",
			Title:          "Exit This Earth's Atmosphere",
			DifficultyName: "Escape",
			Creator:        "Asahina Momoko",
			Status:         models.StatusRanked,
		},
		Mods: models.ModSet{
			{Acronym: "HD"},
			{Acronym: "DT"},
		},
		Status: models.ActivityListening,
		AsOf:   time.Now(),
	}
}
