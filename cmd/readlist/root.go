package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/readlist-api/internal/config"
	"github.com/phrazzld/readlist-api/internal/domain/insights"
	"github.com/phrazzld/readlist-api/internal/events"
	"github.com/phrazzld/readlist-api/internal/platform/kv"
	"github.com/phrazzld/readlist-api/internal/platform/logger"
	"github.com/phrazzld/readlist-api/internal/platform/metrics"
	"github.com/phrazzld/readlist-api/internal/service"
	"github.com/spf13/cobra"
)

// cli holds the flags and the service shared by every subcommand.
type cli struct {
	configFile string
	dataPath   string
	verbose    bool

	store   *kv.ReadingItemStore
	service service.ReadingService
}

// execute runs the command line args and always releases the store, even
// when a subcommand fails.
func execute(args []string, out, errOut io.Writer) error {
	c := &cli{}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.Execute()
	if closeErr := c.close(); err == nil {
		err = closeErr
	}
	return err
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "readlist",
		Short:         "Keep track of what you read",
		Long:          "readlist manages a personal reading list: what to read, what you are reading, and what you finished.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "configuration file (default ./config.yaml if present)")
	root.PersistentFlags().StringVar(&c.dataPath, "data", "", "Badger data directory (overrides local.path)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		c.listCommand(),
		c.showCommand(),
		c.addCommand(),
		c.startCommand(),
		c.progressCommand(),
		c.finishCommand(),
		c.priorityCommand(),
		c.tagCommand(),
		c.removeCommand(),
		c.statsCommand(),
		c.suggestCommand(),
		c.balanceCommand(),
		c.goalsCommand(),
	)
	return root
}

// open loads configuration and opens the local store. Log output goes to
// logOut and is silent unless --verbose is set.
func (c *cli) open(logOut io.Writer) error {
	var (
		cfg *config.Config
		err error
	)
	if c.configFile != "" {
		cfg, err = config.LoadFile(c.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := "error"
	if c.verbose {
		level = "debug"
	}
	log, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: level}, logOut)
	if err != nil {
		return err
	}

	opts := kv.Options{Path: cfg.Local.Path, InMemory: cfg.Local.InMemory}
	if c.dataPath != "" {
		opts = kv.Options{Path: c.dataPath}
	}
	c.store, err = kv.Open(opts, log)
	if err != nil {
		return fmt.Errorf("failed to open reading list: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(events.NewActivityLogHandler(log))

	c.service, err = service.NewReadingService(
		c.store,
		insights.NewDefaultService(),
		emitter,
		metrics.Nop{},
		nil,
		log.With(slog.String("client", "cli")),
	)
	if err != nil {
		_ = c.store.Close()
		c.store = nil
		return err
	}
	return nil
}

func (c *cli) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}
