package venv

import "errors"

// ErrNotFound indicates the virtual environment directory does not exist.
var ErrNotFound = errors.New("virtual environment not found")

// ErrNotVenv indicates the virtual environment path is not a directory.
var ErrNotVenv = errors.New("not a virtual environment directory")

// ErrNoActivate indicates the activation entry point is missing from the environment.
var ErrNoActivate = errors.New("activation script not found")

// ErrNoInterpreter indicates the requested interpreter is missing from the environment.
var ErrNoInterpreter = errors.New("python interpreter not found")
