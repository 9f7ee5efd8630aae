package launch

import "errors"

// ErrScriptNotFound indicates the target script does not exist.
var ErrScriptNotFound = errors.New("script not found")

// ErrStartFailed indicates the interpreter process could not be started.
var ErrStartFailed = errors.New("cannot start interpreter")
