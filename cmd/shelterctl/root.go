package main

import (
	"context"
	"io/fs"
	"time"

	"github.com/dalemusser/stratashelter/internal/app/shelter"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// connectFunc is shelter.Connect; tests swap it.
type connectFunc func(ctx context.Context, cfg shelter.Config, logger *zap.Logger) (*shelter.Client, error)

// offline marks commands that never touch the store.
const offline = "offline"

type cli struct {
	cfg     shelter.Config
	envFile string
	timeout time.Duration
	output  string
	verbose bool

	connect connectFunc
	client  *shelter.Client
	logger  *zap.Logger
	root    *cobra.Command
}

func newCLI(connect connectFunc) *cli {
	c := &cli{connect: connect}

	root := &cobra.Command{
		Use:   "shelterctl",
		Short: "Manage animal shelter records and dashboard users",
		Long: `shelterctl connects to the shelter document store and runs one operation.

Connection settings come from flags, then AAC_* environment variables
(optionally loaded from --env-file), then the defaults localhost:27017/AAC.
Filters, data and changes are Extended JSON objects, so operators such as
$in and $gte work as they do in the store's own shell.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	f := root.PersistentFlags()
	f.StringVar(&c.cfg.User, "user", "", "store username (env "+shelter.EnvUser+")")
	f.StringVar(&c.cfg.Password, "pass", "", "store password (env "+shelter.EnvPassword+")")
	f.StringVar(&c.cfg.Host, "host", "", "store host (env "+shelter.EnvHost+", default localhost)")
	f.IntVar(&c.cfg.Port, "port", 0, "store port (env "+shelter.EnvPort+", default 27017)")
	f.StringVar(&c.cfg.Database, "db", "", "database (env "+shelter.EnvDatabase+", default AAC)")
	f.StringVar(&c.cfg.Collection, "col", "", "record collection (env "+shelter.EnvCollection+", default animals)")
	f.StringVar(&c.cfg.Salt, "salt", "", "password digest salt (env "+shelter.EnvSalt+")")
	f.StringVar(&c.cfg.DigestScheme, "digest", "", "password digest scheme (env "+shelter.EnvDigest+")")
	f.StringVar(&c.envFile, "env-file", ".env", "dotenv file to load before reading AAC_* (missing file is ignored)")
	f.DurationVar(&c.timeout, "timeout", 30*time.Second, "deadline for the store call")
	f.StringVarP(&c.output, "output", "o", "json", "read output: json (one object per line) or table")
	f.BoolVarP(&c.verbose, "verbose", "v", false, "log connection details to stderr")

	root.AddCommand(
		c.createCmd(),
		c.readCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.presetsCmd(),
		c.registerCmd(),
		c.loginCmd(),
	)
	c.root = root
	return c
}

// execute runs the command line and always releases the connection, even
// when the command fails. cobra skips post-run hooks after a RunE error.
func (c *cli) execute() error {
	err := c.root.Execute()
	if cerr := c.teardown(); err == nil {
		err = cerr
	}
	return err
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "load %s", c.envFile)
		}
	}

	c.logger = zap.NewNop()
	if c.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return errors.Wrap(err, "init logger")
		}
		c.logger = l
	}

	if cmd.Annotations[offline] != "" {
		return nil
	}
	client, err := c.connect(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	c.client = client
	return nil
}

func (c *cli) teardown() error {
	if c.logger != nil {
		defer func() { _ = c.logger.Sync() }()
	}
	if c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.client.Close(ctx)
	c.client = nil
	return err
}

func (c *cli) callContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}
