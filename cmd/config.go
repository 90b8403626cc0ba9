package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/tubegrab/internal/output"
	"github.com/tanq16/tubegrab/internal/utils"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the config path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if _, err := os.Stat(configPath); err == nil && !force {
				output.PrintError(fmt.Sprintf("%s already exists, use --force to overwrite", configPath))
				os.Exit(1)
			}
			if err := utils.SaveConfig(configPath, utils.FileConfig()); err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			output.PrintSuccess("Wrote default config to " + configPath)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			data, err := yaml.Marshal(cfg)
			if err != nil {
				output.PrintError(err.Error())
				os.Exit(1)
			}
			output.PrintDetail("# " + configPath)
			fmt.Print(string(data))
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
