package bootstrap

import (
	"errors"
	"fmt"

	"github.com/tenjin-project/tenjin/pkg/fetch"
)

// Step names a bootstrap phase.
type Step string

// Bootstrap steps in execution order.
const (
	StepVerifyRoot Step = "verify-root"
	StepDetectTool Step = "detect-fetch-tool"
	StepPrepare    Step = "prepare"
	StepDownload   Step = "download"
	StepInstall    Step = "install"
	StepConfigure  Step = "configure"
	StepVerify     Step = "verify"
	StepHandoff    Step = "handoff"
)

var (
	// ErrWrongDirectory is returned when not invoked from the project root.
	ErrWrongDirectory = errors.New("not invoked from the project root")
	// ErrNoFetchTool is returned when neither curl nor wget is available.
	ErrNoFetchTool = fetch.ErrNoFetchTool
	// ErrPrepare is returned when the install root cannot be created.
	ErrPrepare = errors.New("could not prepare install directory")
	// ErrDownload is returned when the installer cannot be fetched.
	ErrDownload = errors.New("installer download failed")
	// ErrInstall is returned when the installer exits non-zero.
	ErrInstall = errors.New("installer failed")
	// ErrConfig is returned when uv.toml cannot be written.
	ErrConfig = errors.New("could not write uv configuration")
	// ErrVerify is returned when the installed binary fails its version check.
	ErrVerify = errors.New("installed uv failed version check")
	// ErrHandoff is returned when the downstream command fails.
	ErrHandoff = errors.New("downstream command failed")
)

// StepError reports which step failed. It matches both its Kind and the
// underlying cause with errors.Is.
type StepError struct {
	Step Step
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Step, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Step, e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func stepErr(step Step, kind, err error) error {
	return &StepError{Step: step, Kind: kind, Err: err}
}
