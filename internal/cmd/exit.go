package cmd

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/namelens/expirywatch/internal/config"
	errwrap "github.com/namelens/expirywatch/internal/errors"
)

// ExitCodeFor maps a command error to a semantic foundry exit code.
// Configuration problems exit with ExitConfigInvalid, everything else with
// ExitFailure.
func ExitCodeFor(err error) foundry.ExitCode {
	if config.IsValidationError(err) {
		return foundry.ExitConfigInvalid
	}
	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope.Code == errwrap.CodeConfigInvalid {
		return foundry.ExitConfigInvalid
	}
	return foundry.ExitFailure
}

// ExitWithCodeStderr writes msg and err to stderr with exit code metadata,
// then exits. Use it for failures outside a structured logger.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		} else {
			fmt.Fprintf(os.Stderr, "FATAL: %s (exit code: %d)\n", msg, exitCode)
		}
		os.Exit(int(exitCode))
	}

	switch envelope, isEnvelope := err.(*errors.ErrorEnvelope); {
	case isEnvelope && envelope != nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %s\n", msg, envelope.Code, envelope.Message)
		if original, ok := envelope.Original.(error); ok && original != nil {
			fmt.Fprintf(os.Stderr, "Underlying error: %v\n", original)
		}
	case err != nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	default:
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	}
	fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)

	os.Exit(info.Code)
}
