package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gammazero/workerpool"
	"github.com/mattn/go-colorable"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"codeberg.org/pixsplit/pixsplit/configs"
	"codeberg.org/pixsplit/pixsplit/internal/convert"
	"codeberg.org/pixsplit/pixsplit/internal/timing"
	"codeberg.org/pixsplit/pixsplit/pkg/img"
	"codeberg.org/pixsplit/pixsplit/pkg/parallel"
)

var rootCmd = &cobra.Command{
	Use:                "pixsplit",
	Short:              "Parallel grayscale and brightness image converter",
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  appPersistentPreRun,
	PersistentPostRunE: appPersistentPostRunE,
}

var configPath string

// Engine instances shared by all the commands. They're
// created by setupEngine.
var (
	codec      img.Codec
	timings    *timing.Log
	workerPool *workerpool.WorkerPool
	service    *convert.Service
)

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath, "config", "c",
		"", "Configuration file",
	)
	rootCmd.PersistentFlags().StringVarP(
		&configs.Config.Main.LogLevel, "level", "l",
		configs.Config.Main.LogLevel, "Log level",
	)
}

func appPersistentPreRun(c *cobra.Command, _ []string) error {
	if configPath == "" {
		if _, err := os.Stat("config.toml"); err == nil {
			configPath = "config.toml"
		}
	}

	if err := loadConfiguration(c, configPath); err != nil {
		return err
	}

	// Enforce debug in dev mode
	if configs.Config.Main.DevMode {
		configs.Config.Main.LogLevel = "debug"
	}

	// Setup logger
	lvl, err := log.ParseLevel(configs.Config.Main.LogLevel)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.WithField("log_level", lvl).Debug()
	if configs.Config.Main.DevMode {
		log.SetFormatter(&log.TextFormatter{
			ForceColors: true,
		})
		log.SetOutput(colorable.NewColorableStdout())
		log.SetLevel(log.TraceLevel)
	}

	return setupEngine()
}

// loadConfiguration loads the configuration file. Flags bound to the
// configuration and set on the command line win over the file.
func loadConfiguration(c *cobra.Command, filename string) error {
	flags := configs.Config
	if err := configs.LoadConfiguration(filename); err != nil {
		return fmt.Errorf("error loading configuration (%s)", err)
	}

	if c.Flags().Changed("level") {
		configs.Config.Main.LogLevel = flags.Main.LogLevel
	}
	if c.Flags().Changed("host") {
		configs.Config.Server.Host = flags.Server.Host
	}
	if c.Flags().Changed("port") {
		configs.Config.Server.Port = flags.Server.Port
	}
	return nil
}

func appPersistentPostRunE(_ *cobra.Command, _ []string) error {
	return cleanup()
}

// setupEngine creates the codec, the worker pool and the convert
// service from the configuration.
func setupEngine() error {
	if configs.Config.Images.Codec == "native" {
		img.Register("native", img.NewNativeCodec(configs.Config.Images.Quality))
	}

	var err error
	if codec, err = img.Get(configs.Config.Images.Codec); err != nil {
		return err
	}

	if workerPool == nil && configs.Config.Engine.PoolSize > 0 {
		workerPool = workerpool.New(configs.Config.Engine.PoolSize)
	}

	timings = timing.NewLog()
	service = convert.NewService(&parallel.Executor{
		Pool:    workerPool,
		Timeout: configs.Config.Engine.Timeout(),
	}, timings)

	log.WithFields(log.Fields{
		"codec":     configs.Config.Images.Codec,
		"pool_size": configs.Config.Engine.PoolSize,
		"workers":   configs.Config.Engine.Workers,
	}).Debug("engine ready")

	return nil
}

func cleanup() error {
	if workerPool != nil {
		workerPool.StopWait()
		workerPool = nil
	}
	return nil
}

// Run starts the application
func Run() error {
	go func() {
		sigchan := make(chan os.Signal, 10)
		signal.Notify(sigchan,
			os.Interrupt, syscall.SIGTERM,
			syscall.SIGQUIT, syscall.SIGHUP,
		)
		<-sigchan
		println("Bye!")

		cleanup()
		os.Exit(0)
	}()

	return rootCmd.Execute()
}
