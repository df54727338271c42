package exec

import "errors"

type execErr struct {
	msg      string
	stderr   string
	exitCode int
}

func (e execErr) Error() string {
	return e.msg
}

func (e execErr) Stderr() string {
	return e.stderr
}

func (e execErr) ExitCode() int {
	return e.exitCode
}

// NewExecErr returns an error describing a failed command, or nil when the
// exit code is zero.
func NewExecErr(message string, stderr string, exitCode int) error {
	if exitCode == 0 {
		return nil
	}

	return execErr{message, stderr, exitCode}
}

type ExecErr interface {
	Error() string
	Stderr() string
	ExitCode() int
}

// GetStderr returns the stderr captured by the first ExecErr found in err's tree.
func GetStderr(err error) (string, bool) {
	var xErr ExecErr
	if errors.As(err, &xErr) {
		return xErr.Stderr(), true
	}

	return "", false
}
