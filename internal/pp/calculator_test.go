package pp

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nowplaybot/nowplay/errors"
	"github.com/nowplaybot/nowplay/pkg/models"
)

// scriptExecutor records the requested command line and runs a canned shell
// script in its place.
type scriptExecutor struct {
	script string
	name   string
	args   []string
}

func (e *scriptExecutor) Command(name string, args ...string) *exec.Cmd {
	return e.CommandContext(context.Background(), name, args...)
}

func (e *scriptExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	e.name = name
	e.args = args
	return exec.CommandContext(ctx, "sh", "-c", e.script)
}

func writeBeatmap(t *testing.T) models.DifficultyAttributes {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map.osu"), []byte("osu file format v14\n"), 0644))
	return models.DifficultyAttributes{FilePath: "map.osu", SongsDir: dir}
}

func TestSpread(t *testing.T) {
	runner := &scriptExecutor{script: `printf '312.4\n356.1\n384.9\n421.0\n478.2\n'`}
	calc := NewExecCalculatorWithExecutor([]string{"rosu-pp", "--json"}, runner)

	attrs := writeBeatmap(t)
	mods := models.ModSet{{Acronym: "HD"}, {Acronym: "DT"}}

	values, err := calc.Spread(context.Background(), attrs, mods)
	require.NoError(t, err)

	assert.Equal(t, map[int]float64{95: 312.4, 97: 356.1, 98: 384.9, 99: 421.0, 100: 478.2}, values)

	// The configured command line is preserved and the beatmap, mod bits and
	// accuracy breakpoints are appended.
	assert.Equal(t, "rosu-pp", runner.name)
	require.True(t, len(runner.args) >= 4)
	assert.Equal(t, "--json", runner.args[0])
	assert.Equal(t, filepath.Join(attrs.SongsDir, "map.osu"), runner.args[1])
	assert.Equal(t, []string{"--mods", "72"}, runner.args[2:4])
	assert.Contains(t, runner.args, "--acc")
	assert.Contains(t, runner.args, "95")
	assert.Contains(t, runner.args, "100")
}

func TestSpreadClockRate(t *testing.T) {
	runner := &scriptExecutor{script: `printf '312.4\n356.1\n384.9\n421.0\n478.2\n'`}
	calc := NewExecCalculatorWithExecutor([]string{"rosu-pp"}, runner)

	attrs := writeBeatmap(t)

	// A parameterized rate adjust carries its rate explicitly; the DT bit
	// alone would flatten it to 1.5x.
	mods := models.ModSet{{Acronym: "DT", Settings: map[string]float64{"speed_change": 1.4}}}
	_, err := calc.Spread(context.Background(), attrs, mods)
	require.NoError(t, err)

	idx := -1
	for i, arg := range runner.args {
		if arg == "--clock-rate" {
			idx = i
		}
	}
	require.NotEqual(t, -1, idx, "args: %v", runner.args)
	assert.Equal(t, "1.4", runner.args[idx+1])

	// Plain DT carries no explicit rate.
	_, err = calc.Spread(context.Background(), attrs, models.ModSet{{Acronym: "DT"}})
	require.NoError(t, err)
	assert.NotContains(t, runner.args, "--clock-rate")
}

func TestSpreadNotConfigured(t *testing.T) {
	calc := NewExecCalculator(nil)

	_, err := calc.Spread(context.Background(), writeBeatmap(t), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMetricUnsupported, errors.GetCode(err))
}

func TestSpreadUnresolvableAttributes(t *testing.T) {
	calc := NewExecCalculator([]string{"rosu-pp"})

	_, err := calc.Spread(context.Background(), models.DifficultyAttributes{}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMetricUnsupported, errors.GetCode(err))
}

func TestSpreadMissingFile(t *testing.T) {
	calc := NewExecCalculator([]string{"rosu-pp"})

	attrs := models.DifficultyAttributes{FilePath: "gone.osu", SongsDir: t.TempDir()}
	_, err := calc.Spread(context.Background(), attrs, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMetricUnsupported, errors.GetCode(err))
}

func TestSpreadBadOutput(t *testing.T) {
	runner := &scriptExecutor{script: `printf 'not a number\n'`}
	calc := NewExecCalculatorWithExecutor([]string{"rosu-pp"}, runner)

	_, err := calc.Spread(context.Background(), writeBeatmap(t), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandFailed, errors.GetCode(err))
}

func TestSpreadCalculatorExits(t *testing.T) {
	runner := &scriptExecutor{script: `exit 3`}
	calc := NewExecCalculatorWithExecutor([]string{"rosu-pp"}, runner)

	_, err := calc.Spread(context.Background(), writeBeatmap(t), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCommandFailed, errors.GetCode(err))
}

func TestParseSpread(t *testing.T) {
	t.Run("blank lines skipped", func(t *testing.T) {
		values, err := parseSpread([]byte("100\n\n200\n300\n\n400\n500\n"))
		require.NoError(t, err)
		assert.Equal(t, 100.0, values[95])
		assert.Equal(t, 500.0, values[100])
	})

	t.Run("too few values", func(t *testing.T) {
		_, err := parseSpread([]byte("100\n200\n"))
		require.Error(t, err)
	})

	t.Run("unparseable line", func(t *testing.T) {
		_, err := parseSpread([]byte("100\noops\n300\n400\n500\n"))
		require.Error(t, err)
	})
}
