package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/target/food-identity-gateway/config"
	"github.com/target/food-identity-gateway/internal/adapters/line"
	"github.com/target/food-identity-gateway/internal/bootstrap"
	"github.com/target/food-identity-gateway/internal/data"
	"github.com/target/food-identity-gateway/internal/devseed"
	domainauth "github.com/target/food-identity-gateway/internal/domain/auth"
	"github.com/target/food-identity-gateway/internal/domain/model"
	"github.com/target/food-identity-gateway/internal/migrate"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 30 * time.Second
)

func main() {
	logger := bootstrap.InitLogger(slog.LevelInfo)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{Ctx: ctx, Logger: logger, Config: cfg, Out: os.Stdout}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(ctx, "command failed", "command", cmdName, "error", runErr)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrations,
		},
		"db-seed": {
			name:        "db-seed",
			description: "Run database migrations and register the demo restaurants",
			run:         runDBSeed,
		},
		"migrate-status": {
			name:        "migrate-status",
			description: "List migrations that have not been applied",
			run:         runMigrateStatus,
		},
		"add-restaurant": {
			name:        "add-restaurant",
			description: "Register a restaurant so it can be used as login context",
			run:         runAddRestaurant,
		},
		"revoke-sessions": {
			name:        "revoke-sessions",
			description: "Delete every server session of a user",
			run:         runRevokeSessions,
		},
		"verify-token": {
			name:        "verify-token",
			description: "Verify a client SDK access token against the LINE Platform",
			run:         runVerifyToken,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: identity-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	names := make([]string, 0, len(commands()))
	for name := range commands() {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-18s %s\n", name, commands()[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := migrateOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := connectDB(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	cmdCtx.Logger.InfoContext(ctx, "running database migrations")
	if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
		return err
	}
	cmdCtx.Logger.InfoContext(ctx, "migrations completed successfully")
	return nil
}

func runMigrateStatus(cmdCtx *commandContext, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("migrate-status takes no arguments, got %q", strings.Join(args, " "))
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := connectDB(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	pending, err := migrate.Pending(ctx, db)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return writef(cmdCtx.Out, "schema is up to date\n")
	}
	for _, v := range pending {
		if err := writef(cmdCtx.Out, "pending %s\n", v); err != nil {
			return err
		}
	}
	return nil
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := connectDB(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	if err := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); err != nil {
		return err
	}
	res, err := devseed.Seed(ctx, data.NewRestaurantRepo(db), devseed.DefaultRestaurants(), cmdCtx.Logger)
	if err != nil {
		return err
	}
	return writef(cmdCtx.Out, "seeded %d restaurant(s), %d already present\n", len(res.Created), len(res.Existing))
}

type addRestaurantOptions struct {
	Request model.CreateRestaurantRequest
}

func parseAddRestaurantFlags(args []string) (addRestaurantOptions, error) {
	fs := flag.NewFlagSet("add-restaurant", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var id, name, owner string
	fs.StringVar(&id, "id", "", "Restaurant id as it appears in menu URLs")
	fs.StringVar(&name, "name", "", "Display name")
	fs.StringVar(&owner, "owner", "", "Optional owner user id")
	if err := fs.Parse(args); err != nil {
		return addRestaurantOptions{}, err
	}

	req := model.CreateRestaurantRequest{ID: id, Name: name}
	if owner = strings.TrimSpace(owner); owner != "" {
		req.OwnerID = &owner
	}
	if err := req.Validate(); err != nil {
		return addRestaurantOptions{}, err
	}
	return addRestaurantOptions{Request: req}, nil
}

func runAddRestaurant(cmdCtx *commandContext, args []string) error {
	opts, err := parseAddRestaurantFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := connectDB(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx, db)

	r, err := data.NewRestaurantRepo(db).Create(ctx, &opts.Request)
	if err != nil {
		return fmt.Errorf("create restaurant: %w", err)
	}
	return writef(cmdCtx.Out, "registered restaurant %s (%s)\n", r.ID, r.Name)
}

type revokeOptions struct {
	UserID string
	Yes    bool
}

func parseRevokeFlags(args []string) (revokeOptions, error) {
	fs := flag.NewFlagSet("revoke-sessions", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts revokeOptions
	fs.StringVar(&opts.UserID, "user", "", "Internal user id whose sessions are revoked")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return revokeOptions{}, err
	}
	opts.UserID = strings.TrimSpace(opts.UserID)
	if opts.UserID == "" {
		return revokeOptions{}, errors.New("--user is required")
	}
	if !opts.Yes {
		return revokeOptions{}, errors.New("refusing to revoke sessions without --yes")
	}
	return opts, nil
}

func runRevokeSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseRevokeFlags(args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	store, closeStore, err := connectSessionStore(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := store.RevokeUser(ctx, opts.UserID)
	if err != nil {
		return err
	}
	cmdCtx.Logger.InfoContext(ctx, "sessions revoked", "user_id", opts.UserID, "count", n)
	return writef(cmdCtx.Out, "revoked %d session(s) for %s\n", n, opts.UserID)
}

type verifyTokenOptions struct {
	Token string
}

func parseVerifyTokenFlags(args []string) (verifyTokenOptions, error) {
	fs := flag.NewFlagSet("verify-token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts verifyTokenOptions
	fs.StringVar(&opts.Token, "token", "", "Access token issued by the client SDK")
	if err := fs.Parse(args); err != nil {
		return verifyTokenOptions{}, err
	}
	if opts.Token = strings.TrimSpace(opts.Token); opts.Token == "" {
		return verifyTokenOptions{}, errors.New("--token is required")
	}
	return opts, nil
}

// tokenReport is printed by verify-token. The token itself is never echoed.
type tokenReport struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	PictureURL  string    `json:"pictureUrl,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

func runVerifyToken(cmdCtx *commandContext, args []string) error {
	opts, err := parseVerifyTokenFlags(args)
	if err != nil {
		return err
	}
	if cmdCtx.Config.Auth.Mode != config.AuthModeLine {
		return fmt.Errorf("verify-token needs AUTH_MODE=line, got %q", cmdCtx.Config.Auth.Mode)
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	client, err := line.NewClient(line.ClientOptions{BaseURL: cmdCtx.Config.Auth.APIBaseURL, Logger: cmdCtx.Logger})
	if err != nil {
		return err
	}
	channelID := cmdCtx.Config.Auth.ChannelID
	if channelID == "" {
		channelID = domainauth.ChannelIDFromAppID(cmdCtx.Config.Identity.SDKAppID)
	}
	verifier, err := line.NewVerifier(client, channelID)
	if err != nil {
		return err
	}

	id, err := verifier.Verify(ctx, opts.Token)
	if err != nil {
		return err
	}
	return printTokenReport(cmdCtx.Out, id)
}

func printTokenReport(w io.Writer, id domainauth.Identity) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenReport{
		UserID:      id.UserID,
		DisplayName: id.DisplayName,
		PictureURL:  id.PictureURL,
		ExpiresAt:   id.ExpiresAt.UTC(),
	})
}
