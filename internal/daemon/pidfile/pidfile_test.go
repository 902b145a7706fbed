package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/nowplaybot/nowplay/errors"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nowplayd.pid")

	if err := Acquire(path); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	pid, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Read() = %d, want %d", pid, os.Getpid())
	}

	running, gotPid, err := IsRunning(path)
	if err != nil {
		t.Fatalf("IsRunning() error: %v", err)
	}
	if !running || gotPid != os.Getpid() {
		t.Errorf("IsRunning() = (%v, %d), want (true, %d)", running, gotPid, os.Getpid())
	}

	if err := Release(path); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected pid file removed after Release")
	}
}

func TestAcquireRejectsLivePid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nowplayd.pid")

	// The current test process stands in for a running daemon.
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		t.Fatal(err)
	}

	err := Acquire(path)
	if err == nil {
		t.Fatal("expected Acquire to fail for a live pid")
	}
	if errors.GetCode(err) != errors.ErrCodeDaemonRunning {
		t.Errorf("unexpected error code %q", errors.GetCode(err))
	}
}

func TestAcquireCleansStalePid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nowplayd.pid")

	// PID well above any plausible live process.
	if err := os.WriteFile(path, []byte("4194999"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := Acquire(path); err != nil {
		t.Fatalf("Acquire() should replace a stale pid file: %v", err)
	}

	pid, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Errorf("stale pid not replaced, got %d", pid)
	}
}

func TestIsRunningMissingFile(t *testing.T) {
	running, pid, err := IsRunning(filepath.Join(t.TempDir(), "absent.pid"))
	if err != nil {
		t.Fatalf("IsRunning() error: %v", err)
	}
	if running || pid != 0 {
		t.Errorf("IsRunning() = (%v, %d), want (false, 0)", running, pid)
	}
}
