package main

import (
	"os"

	"github.com/nowplaybot/nowplay/cli"
	"github.com/nowplaybot/nowplay/cmd"
	"github.com/nowplaybot/nowplay/pkg/profiling"
	"github.com/nowplaybot/nowplay/version"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"nowplay",
		"osu! now-playing state for Twitch chat",
	)

	info := version.GetInfo()
	rootCmd.Version = info.Version
	cli.SetVersionTemplate(rootCmd, cli.VersionInfo{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		BuildArch: info.Platform,
	})

	profiler := profiling.NewCobraProfiler()
	profiler.AddFlags(rootCmd)
	rootCmd.PersistentPreRunE = profiler.PreRun
	rootCmd.PersistentPostRun = profiler.PostRun

	rootCmd.AddCommand(cmd.NewDaemonCmd())
	rootCmd.AddCommand(cmd.NewNowCmd())
	rootCmd.AddCommand(cmd.NewRenderCmd())
	rootCmd.AddCommand(cmd.NewLogsCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
