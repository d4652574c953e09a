package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/pulse/internal/app"
	"github.com/nhle/pulse/internal/credential"
	"github.com/nhle/pulse/internal/model"
)

func setupCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Configure the record backend and store its credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := model.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}

			var token, redisPassword string
			if err := setupForm(cfg, &token, &redisPassword).Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			creds, err := credential.Open(model.ConfigDir())
			if err != nil {
				return err
			}
			if token != "" {
				if err := creds.Set(credential.KeyBackendToken, token); err != nil {
					return err
				}
				cfg.Backend.Token = token
			}
			if redisPassword != "" {
				if err := creds.Set(credential.KeyRedisPassword, redisPassword); err != nil {
					return err
				}
				cfg.State.RedisPassword = redisPassword
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := model.SaveConfig(flags.configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", flags.configPath)

			return checkConnection(cmd.Context(), cmd, cfg)
		},
	}
}

func setupForm(cfg *model.AppConfig, token, redisPassword *string) *huh.Form {
	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = model.BackendREST
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = model.StateSQLite
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Record backend").
				Options(
					huh.NewOption("REST - managed document API", model.BackendREST),
					huh.NewOption("MongoDB - direct database read", model.BackendMongo),
					huh.NewOption("MySQL - replicated tables", model.BackendMySQL),
				).
				Value(&cfg.Backend.Kind),
			huh.NewInput().
				Title("Display name").
				Description("Used to greet you when the backend has no profile endpoint").
				Value(&cfg.Backend.DisplayName),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Base URL").
				Placeholder("https://portal.example.com").
				Value(&cfg.Backend.BaseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("API token").
				Description("Stored in the system keyring, never in the config file").
				EchoMode(huh.EchoModePassword).
				Value(token),
		).WithHideFunc(func() bool { return cfg.Backend.Kind != model.BackendREST }),
		huh.NewGroup(
			huh.NewInput().
				Title("MongoDB URI").
				Placeholder("mongodb://localhost:27017").
				Value(&cfg.Backend.MongoURI).
				Validate(validateRequired("URI")),
			huh.NewInput().
				Title("Database").
				Value(&cfg.Backend.MongoDatabase).
				Validate(validateRequired("Database")),
		).WithHideFunc(func() bool { return cfg.Backend.Kind != model.BackendMongo }),
		huh.NewGroup(
			huh.NewInput().
				Title("MySQL DSN").
				Placeholder("user:pass@tcp(localhost:3306)/portal?parseTime=true").
				Value(&cfg.Backend.MySQLDSN).
				Validate(validateRequired("DSN")),
		).WithHideFunc(func() bool { return cfg.Backend.Kind != model.BackendMySQL }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Check-in state").
				Options(
					huh.NewOption("SQLite - local file", model.StateSQLite),
					huh.NewOption("Redis - shared across machines", model.StateRedis),
				).
				Value(&cfg.State.Backend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Redis address").
				Value(&cfg.State.RedisAddr).
				Validate(validateRequired("Address")),
			huh.NewInput().
				Title("Redis password").
				EchoMode(huh.EchoModePassword).
				Value(redisPassword),
		).WithHideFunc(func() bool { return cfg.State.Backend != model.StateRedis }),
	)
}

// checkConnection opens the configured backend and reports who it
// authenticated as.
func checkConnection(ctx context.Context, cmd *cobra.Command, cfg *model.AppConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	b, err := app.OpenBackend(ctx, cfg.Backend, nil)
	if err != nil {
		return fmt.Errorf("connection check failed: %w", err)
	}
	defer b.Close()

	who, err := b.Validator.ValidateConnection(ctx)
	if err != nil {
		return fmt.Errorf("connection check failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Connected as %s\n", who)
	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("enter a full URL such as https://portal.example.com")
	}
	return nil
}
