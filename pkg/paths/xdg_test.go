package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNowplayHomeOverride(t *testing.T) {
	home := t.TempDir()
	t.Setenv("NOWPLAY_HOME", home)

	if got, want := ConfigDir(), filepath.Join(home, "config", "nowplay"); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
	if got, want := StateDir(), filepath.Join(home, "state", "nowplay"); got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}
	if got, want := LogDir(), filepath.Join(home, "state", "nowplay", "logs"); got != want {
		t.Errorf("LogDir() = %q, want %q", got, want)
	}
	if got, want := RuntimeDir(), filepath.Join(home, "run"); got != want {
		t.Errorf("RuntimeDir() = %q, want %q", got, want)
	}
	if got, want := SocketPath(), filepath.Join(home, "run", "nowplayd.sock"); got != want {
		t.Errorf("SocketPath() = %q, want %q", got, want)
	}
	if got, want := PidFilePath(), filepath.Join(home, "state", "nowplay", "nowplayd.pid"); got != want {
		t.Errorf("PidFilePath() = %q, want %q", got, want)
	}
}

func TestXDGEnvironment(t *testing.T) {
	t.Setenv("NOWPLAY_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	if got, want := ConfigDir(), filepath.Join("/custom/config", "nowplay"); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
	if got, want := StateDir(), filepath.Join("/custom/state", "nowplay"); got != want {
		t.Errorf("StateDir() = %q, want %q", got, want)
	}
	if got, want := RuntimeDir(), filepath.Join("/run/user/1000", "nowplay"); got != want {
		t.Errorf("RuntimeDir() = %q, want %q", got, want)
	}
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("NOWPLAY_HOME", t.TempDir())

	if err := EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() error: %v", err)
	}

	for _, dir := range []string{ConfigDir(), StateDir(), LogDir(), RuntimeDir()} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("expected %q to exist: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("expected %q to be a directory", dir)
		}
	}
}
