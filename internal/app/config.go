package app

import (
	"github.com/spf13/cobra"

	"codeberg.org/pixsplit/pixsplit/configs"
)

var configWrite string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVar(&configWrite, "write", "", "Write the configuration to this file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		if configWrite != "" {
			return configs.WriteConfig(configWrite)
		}
		return configs.EncodeConfig(c.OutOrStdout())
	},
}
