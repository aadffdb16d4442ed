package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/1trippycat/vaultrunner/cmd"
	vrerrors "github.com/1trippycat/vaultrunner/internal/errors"
)

// Exit codes, stable for scripting:
//
//	0  success
//	1  general failure
//	2  invalid usage
//	3  aborted by the operator
//	4  partial failure (some items succeeded, some did not)
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, vrerrors.ErrInvalidUsage):
		return 2
	case errors.Is(err, vrerrors.ErrUserAborted):
		return 3
	case errors.Is(err, vrerrors.ErrPartialRestore):
		return 4
	default:
		return 1
	}
}

func main() {
	err := cmd.RootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}
