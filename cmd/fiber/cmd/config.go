package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/go-drift/fiber/pkg/config"
	"github.com/go-drift/fiber/pkg/core"
	"github.com/go-drift/fiber/pkg/errors"
)

func init() {
	RegisterCommand(&Command{
		Name:  "config",
		Short: "Show the resolved configuration",
		Long: `Print the configuration fiber would use, with defaults filled in,
in fiber.yaml form.

fiber.yaml is looked up in the directory given by --config, or else in the
nearest parent directory holding fiber.yaml or go.mod.`,
		Usage: "fiber config",
		Run:   runConfig,
	})
}

func runConfig(args []string) error {
	res, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := res.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if res.ModulePath != "" {
		fmt.Fprintf(stdout, "# %s (%s)\n", res.AppName, res.ModulePath)
	}
	_, err = stdout.Write(data)
	return err
}

// loadConfig resolves fiber.yaml from --config or the project root.
func loadConfig() (*config.Resolved, error) {
	dir := configDir
	if dir == "" {
		root, err := config.FindProjectRoot()
		if err != nil {
			root = "."
		}
		dir = root
	}
	res, err := config.Resolve(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return res, nil
}

// rootOptions builds root options from res and installs the error handler
// it asks for. Engine trace lines go to stderr when debug.trace is set.
func rootOptions(res *config.Resolved) core.Options {
	errors.SetHandler(&errors.LogHandler{Verbose: res.Verbose})
	opts := res.RootOptions()
	if res.Trace {
		opts.Trace = log.New(os.Stderr, "fiber: ", log.Lmicroseconds).Printf
	}
	return opts
}
