package executor

import "errors"

// ErrHookFailed wraps a failed hook run — a non-zero exit or a failure
// to start the program — so callers can recognize a hook failure
// distinctly from a template error.
var ErrHookFailed = errors.New("executor: hook exited non-zero")
