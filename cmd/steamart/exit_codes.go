package main

import (
	"context"
	"errors"

	"github.com/hakkai/steam-artwork-downloader/internal/appinfo"
	httpx "github.com/hakkai/steam-artwork-downloader/internal/http"
)

// Exit codes. Distinct codes let scripts tell a slow CM apart from a
// rejected logon or a CDN failure.
const (
	codeUsage      = 2
	codeTimeout    = 3
	codeConnection = 4
	codeTransport  = 5
)

type exitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitError) Unwrap() error {
	return e.err
}

func (e exitError) ExitCode() int {
	if e.code == 0 {
		return 1
	}
	return e.code
}

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return exitError{code: code, err: err}
}

func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return 1
}

// classify attaches an exit code to known failure families. Errors that
// already carry a code pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		// Ctrl-C, conventionally 128+SIGINT.
		return withExitCode(err, 130)
	}
	if errors.Is(err, appinfo.ErrTimeout) {
		return withExitCode(err, codeTimeout)
	}
	var connErr *appinfo.ConnectionError
	if errors.As(err, &connErr) {
		return withExitCode(err, codeConnection)
	}
	var statusErr *httpx.StatusError
	if errors.As(err, &statusErr) {
		return withExitCode(err, codeTransport)
	}
	return err
}
