package app

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/abah/PERMASALAHAN-TANAH/internal/auth"
	"github.com/abah/PERMASALAHAN-TANAH/internal/core/errors"
	"github.com/abah/PERMASALAHAN-TANAH/internal/engine"
	"github.com/abah/PERMASALAHAN-TANAH/internal/export"
	"github.com/abah/PERMASALAHAN-TANAH/internal/platform/config"
)

// DefaultCLIUser is recorded as the actor of command line mutations.
const DefaultCLIUser = "cli"

// ExportOptions configures RunExport.
type ExportOptions struct {
	// Out is the target file. Its extension selects CSV or XLSX.
	Out string
	// Filter is a query string such as "provinsi=Riau&problem=perusahaan".
	Filter string
}

// RunExport writes the filtered record set to a file.
func (a *App) RunExport(ctx context.Context, opts ExportOptions) error {
	ext, err := fileFormat(opts.Out)
	if err != nil {
		return err
	}

	values, err := url.ParseQuery(opts.Filter)
	if err != nil {
		return fmt.Errorf("%w: filter: %w", errors.ErrInvalidInput, err)
	}

	criteria, ignored := engine.ParseCriteria(values)
	for _, ig := range ignored {
		a.logger.Warn().Err(ig.Err()).Msg("Ignoring filter criterion")
	}

	store, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	snap, err := a.loadStore(ctx, store)
	if err != nil {
		return err
	}

	result := snap.Apply(criteria)

	f, err := os.Create(opts.Out)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.Out, err)
	}

	if ext == export.ExtXLSX {
		err = export.WriteXLSX(f, result.Filtered, result.Stats)
	} else {
		err = export.WriteCSV(f, result.Filtered)
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return fmt.Errorf("write %s: %w", opts.Out, err)
	}

	a.logger.Info().Str(logFieldPath, opts.Out).Int(logFieldCount, len(result.Filtered)).Msg("Export written")

	return nil
}

// RunImport merges the records of a CSV or XLSX file into the primary store.
// Records whose id already exists are skipped.
func (a *App) RunImport(ctx context.Context, in, user string) error {
	ext, err := fileFormat(in)
	if err != nil {
		return err
	}

	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open %s: %w", in, err)
	}

	defer func() {
		_ = f.Close()
	}()

	var parsed export.ImportResult
	if ext == export.ExtXLSX {
		parsed, err = export.ReadXLSX(f)
	} else {
		parsed, err = export.ReadCSV(f)
	}

	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}

	store, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	added, _, err := store.Import(ctx, cliPrincipal(user), parsed.Records)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	a.logger.Info().
		Str(logFieldPath, in).
		Int("added", added).
		Int("skipped", parsed.Skipped+len(parsed.Records)-added).
		Msg("Import complete")

	return nil
}

// BackupOptions configures RunBackup.
type BackupOptions struct {
	// Once writes a single backup and exits.
	Once bool
	// List prints the existing backups and exits.
	List bool
}

// RunBackup writes backups of the loaded snapshot.
func (a *App) RunBackup(ctx context.Context, opts BackupOptions) error {
	if opts.List {
		return a.listBackups()
	}

	store, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	if _, err := a.loadStore(ctx, store); err != nil {
		return err
	}

	svc := a.backupService(store)

	if !opts.Once {
		return svc.Run(ctx)
	}

	path, err := svc.Write(ctx)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(a.out, path)

	return nil
}

func (a *App) listBackups() error {
	infos, err := a.backupService(nil).List()
	if err != nil {
		return err
	}

	for _, info := range infos {
		_, _ = fmt.Fprintf(a.out, "%s\t%d\t%s\n", info.Name, info.Size, info.ModTime.UTC().Format("2006-01-02 15:04:05"))
	}

	return nil
}

// RunRestore merges a backup file into the primary store.
func (a *App) RunRestore(ctx context.Context, name, user string) error {
	recs, err := a.backupService(nil).Restore(name)
	if err != nil {
		return err
	}

	store, release, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	added, _, err := store.Import(ctx, cliPrincipal(user), recs)
	if err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}

	a.logger.Info().Str("backup", name).Int("added", added).Int("skipped", len(recs)-added).Msg("Restore complete")

	return nil
}

// RunMigrate applies pending PostgreSQL migrations.
func (a *App) RunMigrate(ctx context.Context) error {
	if a.cfg.DataSource != config.SourcePostgres {
		return fmt.Errorf("%w: migrations need DATA_SOURCE=postgres, got %q", errors.ErrSourceDisabled, a.cfg.DataSource)
	}

	database, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	a.logger.Info().Msg("Migrations applied")

	return nil
}

// RunToken prints a session token for user with the given role.
func (a *App) RunToken(user, role string) error {
	ac := a.cfg.AuthCfg()

	token, err := auth.NewTokenService(ac.SigningSecret, ac.TokenTTLHours).Generate(user, auth.ParseRole(role))
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(a.out, token)

	return nil
}

// cliPrincipal acts with administrator rights.
func cliPrincipal(user string) auth.Session {
	if strings.TrimSpace(user) == "" {
		user = DefaultCLIUser
	}

	return auth.Session{UserID: user, Role: auth.RoleAdmin}
}

func fileFormat(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	switch ext {
	case export.ExtCSV, export.ExtXLSX:
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q must end in .csv or .xlsx", errors.ErrInvalidInput, path)
	}
}
