// Package pp is the boundary to performance-point computation. The math
// itself lives in an external calculator tool; this package only locates the
// beatmap file, shells out, and parses the result.
package pp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nowplaybot/nowplay/command"
	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/models"
)

// Calculator computes the PP value at each accuracy breakpoint for one
// beatmap difficulty under a given mod set.
type Calculator interface {
	Spread(ctx context.Context, attrs models.DifficultyAttributes, mods models.ModSet) (map[int]float64, error)
}

// ExecCalculator runs a configured external calculator (rosu-pp CLI style):
//
//	<cmd> <base args...> <file.osu> --mods <bits> --acc 95 --acc 97 ...
//
// and expects one PP float per line on stdout, in breakpoint order. A lazer
// rate-adjust parameter has no bitmask representation, so it is passed as an
// explicit --clock-rate argument.
type ExecCalculator struct {
	log     *logrus.Entry
	builder *command.SafeBuilder
	argv    []string
}

// NewExecCalculator builds a calculator around the configured command line.
func NewExecCalculator(argv []string) *ExecCalculator {
	return &ExecCalculator{
		log:     logging.NewLogger("pp"),
		builder: command.NewSafeBuilder(),
		argv:    argv,
	}
}

// NewExecCalculatorWithExecutor is the test seam.
func NewExecCalculatorWithExecutor(argv []string, exec command.Executor) *ExecCalculator {
	c := NewExecCalculator(argv)
	c.builder = command.NewSafeBuilderWithExecutor(exec)
	return c
}

func (c *ExecCalculator) Spread(ctx context.Context, attrs models.DifficultyAttributes, mods models.ModSet) (map[int]float64, error) {
	if len(c.argv) == 0 {
		return nil, errors.New(errors.ErrCodeMetricUnsupported, "no pp calculator configured (osu.pp_command)")
	}
	if !attrs.Resolvable() {
		return nil, errors.MetricUnsupported(0, "beatmap has no resolvable local file")
	}

	path := filepath.Join(attrs.SongsDir, attrs.FilePath)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.MetricUnsupported(0, "beatmap file not found: "+path)
	}
	if err := c.builder.Validate("fileName", path); err != nil {
		return nil, errors.MetricUnsupported(0, err.Error())
	}

	bits := strconv.FormatUint(uint64(mods.Bitmask()), 10)
	if err := c.builder.Validate("modBits", bits); err != nil {
		return nil, errors.MetricUnsupported(0, err.Error())
	}

	args := append([]string{}, c.argv[1:]...)
	args = append(args, path, "--mods", bits)
	for _, mod := range mods {
		if v, ok := mod.Settings["speed_change"]; ok && v > 0 {
			args = append(args, "--clock-rate", strconv.FormatFloat(mods.ClockRate(), 'f', -1, 64))
			break
		}
	}
	for _, bp := range models.Breakpoints {
		args = append(args, "--acc", strconv.Itoa(bp))
	}

	cmd, err := c.builder.Build(ctx, c.argv[0], args...)
	if err != nil {
		return nil, errors.CommandFailed(c.argv[0], err)
	}

	out, err := cmd.Exec().Output()
	if err != nil {
		return nil, errors.CommandFailed(c.argv[0], err)
	}

	values, err := parseSpread(out)
	if err != nil {
		return nil, errors.CommandFailed(c.argv[0], err)
	}

	c.log.WithFields(logrus.Fields{"file": filepath.Base(path), "mods": mods.String()}).
		Debug("Computed pp spread")
	return values, nil
}

// parseSpread reads one float per non-empty line, one per breakpoint.
func parseSpread(out []byte) (map[int]float64, error) {
	var floats []float64
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("unparseable calculator output line %q", line)
		}
		floats = append(floats, v)
	}
	if len(floats) < len(models.Breakpoints) {
		return nil, fmt.Errorf("calculator produced %d values, want %d", len(floats), len(models.Breakpoints))
	}

	values := make(map[int]float64, len(models.Breakpoints))
	for i, bp := range models.Breakpoints {
		values[bp] = floats[i]
	}
	return values, nil
}
