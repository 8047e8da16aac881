package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vuego-dev/vuego/internal/config"
)

func initCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a vuego.json in the current directory",
		Long: `Create a vuego.json with sensible defaults.

Examples:
  vuego init
  vuego init --name=shop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(name)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (default: directory name)")

	return cmd
}

func runInit(name string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	if config.Exists(wd) {
		return fmt.Errorf("%s already exists", config.ConfigFileName)
	}

	if name == "" {
		name = filepath.Base(wd)
	}

	cfg := config.New()
	cfg.Name = name

	path := filepath.Join(wd, config.ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	success("Created %s", config.ConfigFileName)
	info("Run 'vuego dev' to start the development server")
	return nil
}
