package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/abah/PERMASALAHAN-TANAH/internal/app"
	"github.com/abah/PERMASALAHAN-TANAH/internal/platform/config"
)

type flags struct {
	mode   string
	once   bool
	list   bool
	out    string
	in     string
	filter string
	user   string
	role   string
	name   string
}

func main() {
	var f flags

	flag.StringVar(&f.mode, "mode", "serve", "Service mode (serve, export, import, backup, restore, migrate, token)")
	flag.BoolVar(&f.once, "once", false, "Write one backup and exit (backup mode)")
	flag.BoolVar(&f.list, "list", false, "List backups and exit (backup mode)")
	flag.StringVar(&f.out, "out", "", "Output file, .csv or .xlsx (export mode)")
	flag.StringVar(&f.in, "in", "", "Input file, .csv or .xlsx (import mode)")
	flag.StringVar(&f.filter, "filter", "", "Filter query such as provinsi=Riau&problem=perusahaan (export mode)")
	flag.StringVar(&f.user, "user", app.DefaultCLIUser, "User id for tokens and audit entries")
	flag.StringVar(&f.role, "role", "viewer", "Role for issued tokens (admin, editor, viewer)")
	flag.StringVar(&f.name, "name", "", "Backup file name (restore mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := cfg.Validate(f.mode == "serve" || f.mode == "token"); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, &logger)

	if err := runMode(ctx, application, f); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, f flags) error {
	switch f.mode {
	case "serve":
		return application.RunServe(ctx)
	case "export":
		requireFlag("out", f.out)
		return application.RunExport(ctx, app.ExportOptions{Out: f.out, Filter: f.filter})
	case "import":
		requireFlag("in", f.in)
		return application.RunImport(ctx, f.in, f.user)
	case "backup":
		return application.RunBackup(ctx, app.BackupOptions{Once: f.once, List: f.list})
	case "restore":
		requireFlag("name", f.name)
		return application.RunRestore(ctx, f.name, f.user)
	case "migrate":
		return application.RunMigrate(ctx)
	case "token":
		return application.RunToken(f.user, f.role)
	default:
		log.Fatalf("Usage: %s --mode=[serve|export|import|backup|restore|migrate|token]", os.Args[0])

		return nil
	}
}

func requireFlag(name, value string) {
	if value == "" {
		log.Fatalf("--%s is required for this mode", name)
	}
}
