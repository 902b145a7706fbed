package errors

import "fmt"

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *Error {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// NotRunning signals that the target client or companion is absent.
// Recoverable: the unifier detaches and resumes probing.
func NotRunning(client string) *Error {
	return New(ErrCodeNotRunning, fmt.Sprintf("%s client is not running", client)).
		WithDetail("client", client)
}

// NotReady signals that the target is present but its state cannot be
// resolved yet (e.g. the client is still starting up). Retried next tick.
func NotReady(client, reason string) *Error {
	return New(ErrCodeNotReady, fmt.Sprintf("%s client not ready: %s", client, reason)).
		WithDetail("client", client)
}

// TornRead signals a transient inconsistency from reading a live external
// process. Discarded at the adapter boundary; never user-visible.
func TornRead(reason string) *Error {
	return New(ErrCodeTornRead, fmt.Sprintf("torn read: %s", reason))
}

// MetricUnsupported signals that PP values cannot be produced for a
// beatmap/mod combination. Rendering surfaces it as empty placeholders.
func MetricUnsupported(beatmapID int64, reason string) *Error {
	return New(ErrCodeMetricUnsupported,
		fmt.Sprintf("pp estimate unavailable for beatmap %d: %s", beatmapID, reason)).
		WithDetail("beatmap_id", beatmapID)
}

// TransportRejected signals a failed outbound chat send. The dispatcher
// logs and drops the response; there is no retry.
func TransportRejected(status int, body string) *Error {
	return New(ErrCodeTransportRejected,
		fmt.Sprintf("chat transport rejected send (status %d)", status)).
		WithDetail("status", status).
		WithDetail("body", body)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *Error {
	return Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)
}

// DaemonAlreadyRunning reports a second daemon start attempt.
func DaemonAlreadyRunning(pid int) *Error {
	return New(ErrCodeDaemonRunning, fmt.Sprintf("daemon already running with PID %d", pid)).
		WithDetail("pid", pid)
}
