package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/byteowlz/diffbot/internal/config"
	"github.com/byteowlz/diffbot/internal/credentials"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		if path == "" {
			return exitError(ExitConfigError, "cannot determine config path")
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return exitError(ExitConfigError, "%s already exists (use --force to overwrite)", path)
		}
		if err := config.Default().CreateExampleConfig(path); err != nil {
			return exitError(ExitFileIOError, "%v", err)
		}
		info("Created config file: %s", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config and credentials file paths",
	Run: func(cmd *cobra.Command, args []string) {
		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		fmt.Println(path)
		fmt.Println(cfg.CredentialsFile())
		fmt.Println(credentials.EnvName(cfg.API.Profile))
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configPathCmd)
}
