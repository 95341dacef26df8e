package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/etnz/coursebooks/config"
	log "github.com/sirupsen/logrus"
)

// RunExtension attempts to find and execute an external cbk-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// The extension receives the resolved store settings in its environment.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "cbk-" + subcommand

	lp, err := exec.LookPath(name)
	if err != nil {
		log.Debugf("external command %q not found in PATH: %v", name, err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	kind, path := storeSettings()
	cmd.Env = append(os.Environ(),
		config.EnvStore+"="+kind,
		config.EnvStorePath+"="+path,
		config.EnvHTML+"="+strconv.FormatBool(*htmlOutput || cfg.HTML),
	)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
