package cmd

import (
	"github.com/habedi/voxbridge/api"
	"github.com/habedi/voxbridge/auth"
	"github.com/habedi/voxbridge/client"
	"github.com/habedi/voxbridge/config"
	"github.com/habedi/voxbridge/db"
	"github.com/habedi/voxbridge/pkg/clierr"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds everything a command needs once the config and database are open.
type app struct {
	cfg     config.Config
	kv      db.KVRepository
	tokens  *db.TokenStore
	history db.ConversationRepository
	client  *client.Client
	api     *api.API
	auth    *auth.Service
}

// cli carries the global flags and the lazily opened app.
type cli struct {
	configPath string
	apiURL     string

	app *app
}

func newCLI() *cli { return &cli{} }

// loadConfig reads the config file and applies the --api-url flag.
func (c *cli) loadConfig() (config.Config, error) {
	path := c.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, clierr.New(clierr.Validation, err.Error(), err)
	}
	if c.apiURL != "" {
		cfg.APIBaseURL = c.apiURL
		if err := cfg.Validate(); err != nil {
			return cfg, clierr.New(clierr.Validation, err.Error(), err)
		}
	}
	return cfg, nil
}

// open returns the app, initializing the database on first use.
func (c *cli) open(cmd *cobra.Command) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	db.Path = cfg.DBPath
	if err := initializeDatabase(); err != nil {
		return nil, clierr.New(clierr.Internal, "Failed to open the local database.", err)
	}

	kv := db.NewKVRepository(db.GetDB())
	tokens := db.NewTokenStore(kv)
	cl := client.New(cfg.APIBaseURL, tokens)
	c.app = &app{
		cfg:     cfg,
		kv:      kv,
		tokens:  tokens,
		history: db.NewConversationRepository(db.GetDB()),
		client:  cl,
		api:     api.New(cl),
		auth:    auth.NewService(tokens, cl),
	}
	log.Debug().Str("api", cfg.APIBaseURL).Str("command", cmd.Name()).Msg("Application context ready")
	return c.app, nil
}

// close releases the database if it was opened.
func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	c.app = nil
	return closeDatabase()
}

func initializeDatabase() error {
	if err := db.InitDB(); err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	return nil
}

func closeDatabase() error {
	if err := db.CloseDB(); err != nil {
		log.Error().Err(err).Msg("Failed to close the database.")
		return err
	}
	return nil
}
