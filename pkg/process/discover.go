package process

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// OsuProcess describes a running osu! client found on this machine.
type OsuProcess struct {
	PID     int
	Exe     string   // resolved /proc/<pid>/exe target
	Cmdline []string // NUL-split /proc/<pid>/cmdline
	Lazer   bool
}

// FindOsuProcesses scans /proc for running osu! clients. Stable runs under
// wine, so the executable name shows up in the command line rather than the
// exe link; lazer is a native binary whose path carries "lazer" or an
// AppImage name.
func FindOsuProcesses() ([]OsuProcess, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	var found []OsuProcess
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		cmdline := readCmdline(pid)
		exe, _ := os.Readlink(filepath.Join("/proc", entry.Name(), "exe"))

		if !looksLikeOsu(exe, cmdline) {
			continue
		}

		found = append(found, OsuProcess{
			PID:     pid,
			Exe:     exe,
			Cmdline: cmdline,
			Lazer:   looksLikeLazer(exe, cmdline),
		})
	}

	return found, nil
}

// FindStable returns the first running stable client, or nil.
func FindStable() (*OsuProcess, error) {
	procs, err := FindOsuProcesses()
	if err != nil {
		return nil, err
	}
	for i := range procs {
		if !procs[i].Lazer {
			return &procs[i], nil
		}
	}
	return nil, nil
}

// FindLazer returns the first running lazer client, or nil. The companion
// may still be reachable when this finds nothing (e.g. a remote client).
func FindLazer() (*OsuProcess, error) {
	procs, err := FindOsuProcesses()
	if err != nil {
		return nil, err
	}
	for i := range procs {
		if procs[i].Lazer {
			return &procs[i], nil
		}
	}
	return nil, nil
}

// SongsDir derives the stable Songs directory from the osu!.exe path on the
// command line. Returns "" when it cannot be determined (e.g. lazer).
func (p *OsuProcess) SongsDir() string {
	if p.Lazer {
		return ""
	}
	for _, arg := range p.Cmdline {
		if strings.HasSuffix(strings.ToLower(arg), "osu!.exe") {
			return filepath.Join(filepath.Dir(translateWinePath(arg)), "Songs")
		}
	}
	return ""
}

func readCmdline(pid int) []string {
	data, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "cmdline"))
	if err != nil || len(data) == 0 {
		return nil
	}
	parts := strings.Split(strings.TrimRight(string(data), "\x00"), "\x00")
	return parts
}

func looksLikeOsu(exe string, cmdline []string) bool {
	if looksLikeLazer(exe, cmdline) {
		return true
	}
	for _, arg := range cmdline {
		if strings.HasSuffix(strings.ToLower(arg), "osu!.exe") {
			return true
		}
	}
	return false
}

func looksLikeLazer(exe string, cmdline []string) bool {
	lower := strings.ToLower(exe)
	if strings.Contains(lower, "lazer") || strings.HasSuffix(lower, "/osu!") {
		return true
	}
	if len(cmdline) > 0 {
		first := strings.ToLower(cmdline[0])
		if strings.Contains(first, "lazer") || strings.Contains(first, "osu.appimage") {
			return true
		}
	}
	return false
}

// translateWinePath maps a windows-style path from a wine command line onto
// the host filesystem. Z: is wine's whole-root drive; other drives live under
// the prefix's dosdevices directory.
func translateWinePath(p string) string {
	if len(p) < 2 || p[1] != ':' {
		return p
	}
	rest := strings.ReplaceAll(p[2:], `\`, "/")
	drive := strings.ToLower(p[:1])
	if drive == "z" {
		return rest
	}
	prefix := os.Getenv("WINEPREFIX")
	if prefix == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return rest
		}
		prefix = filepath.Join(home, ".wine")
	}
	return filepath.Join(prefix, "dosdevices", drive+":", strings.TrimPrefix(rest, "/"))
}
