package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/nowplaybot/nowplay/cli"
	"github.com/nowplaybot/nowplay/config"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/paths"
)

// TailedLine is one log line attributed to the component that wrote it.
type TailedLine struct {
	Component string
	Line      string
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display daemon and component logs",
		Long: `Streams the per-component log files the daemon writes. By default shows
all components; filter with --component.

Examples:
  # Follow all logs
  nowplay logs -f

  # Last 100 lines from the dispatcher in JSON Lines format
  nowplay logs --tail 100 --component dispatch --json

  # Follow the unifier and twitch components only
  nowplay logs -f --component unifier,twitch`,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end of the logs (default: all)")
	cmd.Flags().StringSliceP("component", "C", []string{}, "Filter by component names (comma-separated)")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	logger := cli.GetLogger(cmd)
	opts := cli.GetOptions(cmd)

	// Load logging config for component visibility filtering
	var logCfg logging.Config
	if cfg, err := config.LoadDefault(); err == nil {
		_ = cfg.UnmarshalExtension("logging", &logCfg)
	}

	follow, _ := cmd.Flags().GetBool("follow")
	tailLines, _ := cmd.Flags().GetInt("tail")
	components, _ := cmd.Flags().GetStringSlice("component")

	files, err := findComponentLogs(paths.LogDir(), components)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Info("No log files found. Has the daemon run yet?")
		return nil
	}

	lineChan := make(chan TailedLine, 100)
	var wg sync.WaitGroup

	for component, path := range files {
		wg.Add(1)
		go func(component, path string) {
			defer wg.Done()
			if err := tailFile(component, path, lineChan, follow, tailLines); err != nil {
				logger.WithField("file", path).Debugf("Tail failed: %v", err)
			}
		}(component, path)
	}

	go func() {
		wg.Wait()
		close(lineChan)
	}()

	for tl := range lineChan {
		if !logging.IsComponentVisible(tl.Component, &logCfg) {
			continue
		}
		if opts.JSONOutput {
			printLogJSON(tl)
		} else {
			printLogText(tl)
		}
	}

	return nil
}

// findComponentLogs maps component names to their most recent log file.
// Files are named <component>-<date>.log.
func findComponentLogs(dir string, filter []string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read log directory %s: %w", dir, err)
	}

	wanted := make(map[string]bool)
	for _, c := range filter {
		wanted[c] = true
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	latest := make(map[string]candidate)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".log") {
			continue
		}

		// Strip the trailing -YYYY-MM-DD.log to recover the component
		base := strings.TrimSuffix(name, ".log")
		component := base
		if idx := len(base) - len("-2006-01-02"); idx > 0 {
			component = base[:idx]
		}
		if len(wanted) > 0 && !wanted[component] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if cur, ok := latest[component]; !ok || info.ModTime().After(cur.mod) {
			latest[component] = candidate{path: filepath.Join(dir, name), mod: info.ModTime()}
		}
	}

	files := make(map[string]string, len(latest))
	for component, c := range latest {
		files[component] = c.path
	}
	return files, nil
}

// tailFile emits the requested trailing lines and optionally follows the file.
func tailFile(component, path string, lineChan chan<- TailedLine, follow bool, tailLines int) error {
	if tailLines >= 0 || !follow {
		if err := emitTail(component, path, lineChan, tailLines); err != nil {
			return err
		}
		if !follow {
			return nil
		}
	}

	cfg := tail.Config{
		Follow: true,
		ReOpen: true,
		Logger: tail.DiscardingLogger,
		Location: &tail.SeekInfo{
			Offset: 0,
			Whence: io.SeekEnd,
		},
	}

	t, err := tail.TailFile(path, cfg)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	for line := range t.Lines {
		if line.Err != nil {
			return line.Err
		}
		lineChan <- TailedLine{Component: component, Line: line.Text}
	}
	return nil
}

// emitTail sends the last tailLines lines of the file (all lines when
// negative).
func emitTail(component, path string, lineChan chan<- TailedLine, tailLines int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	start := 0
	if tailLines >= 0 && len(lines) > tailLines {
		start = len(lines) - tailLines
	}
	for _, line := range lines[start:] {
		if line != "" {
			lineChan <- TailedLine{Component: component, Line: line}
		}
	}
	return nil
}

// printLogJSON prints a log line in JSON format, enriched with the component.
func printLogJSON(tl TailedLine) {
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(tl.Line), &logMap); err != nil {
		// Fallback for non-JSON lines
		fallback := map[string]interface{}{
			"component": tl.Component,
			"raw_line":  tl.Line,
			"error":     "failed to parse original log line as JSON",
		}
		jsonData, _ := json.Marshal(fallback)
		fmt.Println(string(jsonData))
		return
	}

	logMap["component"] = tl.Component
	jsonData, _ := json.Marshal(logMap)
	fmt.Println(string(jsonData))
}

// printLogText pretty-prints a log line for human consumption.
func printLogText(tl TailedLine) {
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(tl.Line), &logMap); err != nil {
		// Print as a raw line if not JSON
		fmt.Printf("[%s] %s\n", tl.Component, tl.Line)
		return
	}

	ts, _ := logMap["time"].(string)
	level, _ := logMap["level"].(string)
	msg, _ := logMap["msg"].(string)

	parsedTime, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		parsedTime, _ = time.Parse(time.RFC3339, ts)
	}
	timeStr := parsedTime.Format("15:04:05")

	otherFields := []string{}
	sortedKeys := []string{}
	for k := range logMap {
		if k != "time" && k != "level" && k != "msg" && k != "component" {
			sortedKeys = append(sortedKeys, k)
		}
	}
	sort.Strings(sortedKeys)

	for _, k := range sortedKeys {
		otherFields = append(otherFields, fmt.Sprintf("%s=%v", k, logMap[k]))
	}

	fmt.Printf("%s [%s] %s %s %s\n",
		timeStr,
		tl.Component,
		strings.ToUpper(level),
		msg,
		strings.Join(otherFields, " "),
	)
}
