package cli

import (
	"fmt"
	"os"

	"github.com/nowplaybot/nowplay/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "❌ Configuration not found. Create a nowplay.yml or run with --config.\n")
		return err

	case errors.ErrCodeNotRunning:
		fmt.Fprintf(os.Stderr, "❌ No running osu! client found.\n")
		fmt.Fprintf(os.Stderr, "Start the game, or check the 'osu.client' setting in nowplay.yml.\n")
		return err

	case errors.ErrCodeNotReady:
		fmt.Fprintf(os.Stderr, "❌ The osu! client is still loading. Try again in a moment.\n")
		return err

	case errors.ErrCodePermissionDenied:
		fmt.Fprintf(os.Stderr, "❌ Permission denied reading the game process.\n")
		fmt.Fprintf(os.Stderr, "Process memory access may require CAP_SYS_PTRACE or a relaxed ptrace_scope.\n")
		return err

	case errors.ErrCodeDaemonRunning:
		if e, ok := err.(*errors.Error); ok {
			fmt.Fprintf(os.Stderr, "❌ Daemon is already running (PID %v)\n", e.Details["pid"])
		}
		return err

	case errors.ErrCodeDaemonNotRunning:
		fmt.Fprintf(os.Stderr, "❌ Daemon is not running. Start it with 'nowplay daemon start'.\n")
		return err

	case errors.ErrCodeTransportRejected:
		if e, ok := err.(*errors.Error); ok {
			fmt.Fprintf(os.Stderr, "❌ Twitch rejected the request (status %v)\n", e.Details["status"])
			fmt.Fprintf(os.Stderr, "Check the token's scopes (user:read:chat, user:write:chat) and expiry.\n")
		}
		return err

	default:
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)

		// If verbose mode, show full error details
		if h.Verbose {
			if e, ok := err.(*errors.Error); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", e.ToJSON())
			}
		}
		return err
	}
}
