package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"codeberg.org/pixsplit/pixsplit/configs"
	"codeberg.org/pixsplit/pixsplit/internal/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.PersistentFlags().StringVarP(
		&configs.Config.Server.Host, "host", "H",
		configs.Config.Server.Host, "server host")
	serveCmd.PersistentFlags().IntVarP(
		&configs.Config.Server.Port, "port", "p",
		configs.Config.Server.Port, "server port")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP conversion API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	s := server.New(codec, service)

	log.WithField("url", fmt.Sprintf("http://%s:%d/api/",
		configs.Config.Server.Host, configs.Config.Server.Port),
	).Info("Starting server")
	return s.ListenAndServe(configs.Config.Server.Host, configs.Config.Server.Port)
}
