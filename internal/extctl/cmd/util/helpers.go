package util

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// DefaultErrorExitCode is returned by CheckErr for any error.
const DefaultErrorExitCode = 1

// ErrExit may be passed to CheckErr to exit without printing anything, after
// the command has already reported the problem itself.
var ErrExit = errors.New("exit")

var fatalErrHandler = fatal

// BehaviorOnFatal replaces the fatal handler, e.g. with a panic in tests.
func BehaviorOnFatal(f func(string, int)) {
	fatalErrHandler = f
}

// DefaultBehaviorOnFatal restores the default fatal handler.
func DefaultBehaviorOnFatal() {
	fatalErrHandler = fatal
}

func fatal(msg string, code int) {
	if len(msg) > 0 {
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		fmt.Fprint(os.Stderr, msg)
	}
	os.Exit(code)
}

// CheckErr prints a user friendly error to STDERR and exits with a non-zero
// exit code.
func CheckErr(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, ErrExit) {
		fatalErrHandler("", DefaultErrorExitCode)
		return
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "error: ") {
		msg = "error: " + msg
	}
	fatalErrHandler(msg, DefaultErrorExitCode)
}

// UsageErrorf returns an error that points the user at --help.
func UsageErrorf(cmd *cobra.Command, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s\nSee '%s -h' for help and examples", msg, cmd.CommandPath())
}
