package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nowplaybot/nowplay/cli"
	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/pkg/daemon"
	"github.com/nowplaybot/nowplay/pkg/models"
)

// NewNowCmd creates the `now` command showing the current game state.
func NewNowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "now",
		Short: "Show the currently selected beatmap",
		Long: `Prints the current game state. Uses the daemon when it is running,
otherwise reads the game client directly.`,
		RunE: runNowE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Stream state changes (requires the daemon)")

	return cmd
}

func runNowE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	osuCfg := loadOsuConfig(cmd)
	client := daemon.New(osuCfg)
	defer client.Close()

	follow, _ := cmd.Flags().GetBool("follow")
	if follow {
		return handler.Handle(streamNow(cmd.Context(), client, opts.JSONOutput))
	}

	state, err := client.GetState(cmd.Context())
	if err != nil {
		return handler.Handle(err)
	}

	if opts.JSONOutput {
		return json.NewEncoder(os.Stdout).Encode(state)
	}
	printState(state.Game, state.Source)
	return nil
}

func streamNow(ctx context.Context, client daemon.Client, jsonOutput bool) error {
	updates, err := client.StreamState(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for update := range updates {
		if jsonOutput {
			if err := enc.Encode(update); err != nil {
				return err
			}
			continue
		}

		switch update.UpdateType {
		case "initial", "game_state":
			printState(update.Game, update.Source)
		case "source":
			fmt.Printf("Source: %s\n", update.Source)
		case "config_reload":
			fmt.Printf("Config reloaded: %s\n", update.ConfigFile)
		}
	}
	return nil
}

func printState(gs *models.GameState, source string) {
	if source != "" {
		fmt.Printf("Source:  %s\n", source)
	}
	if gs == nil || gs.Beatmap == nil {
		fmt.Println("No beatmap selected")
		return
	}

	b := gs.Beatmap
	fmt.Printf("Playing: %s - %s [%s]\n", b.Artist, b.Title, b.DifficultyName)
	fmt.Printf("Mapper:  %s\n", b.Creator)
	fmt.Printf("Status:  %s\n", b.Status)
	if mods := gs.Mods.String(); mods != "" {
		fmt.Printf("Mods:    %s\n", mods)
	}
	if link := b.Link(); link != "" {
		fmt.Printf("Link:    %s\n", link)
	}
}

// loadOsuConfig loads the osu section for direct reads, tolerating a missing
// config file.
func loadOsuConfig(cmd *cobra.Command) *config.OsuConfig {
	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		if errors.GetCode(err) != errors.ErrCodeConfigNotFound {
			cli.GetLogger(cmd).WithError(err).Warn("Config load failed, using defaults")
		}
		cfg = &config.Config{}
		cfg.SetDefaults()
	}
	return cfg.Osu
}
