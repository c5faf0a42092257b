package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/theplant/searchspec"
	"github.com/theplant/searchspec/filter"
	"github.com/theplant/searchspec/filter/gormfilter"
	"github.com/theplant/searchspec/gormsearch"
	"github.com/theplant/searchspec/internal/config"
	"github.com/theplant/searchspec/searchhttp"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "searchd",
		Short: "searchd serves filtered, sorted and paged searches over relational entities",
		Long: `searchd serves filtered, sorted and paged searches over relational entities.

Every flag can also be set through an environment variable named after it with the
SEARCHD_ prefix, e.g. SEARCHD_MAX_PAGE_SIZE=50. Flags take precedence over environment
variables, which take precedence over the config file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.NewViper(cmd.Flags(), cfgFile)
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	config.SetupFlags(cmd.Flags(), config.Default())
	return cmd
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(cfg.LogLevel)
	return logger
}

func repositoryOptions[T any](cfg *config.Config, logger logrus.FieldLogger) []gormsearch.Option[T] {
	return []gormsearch.Option[T]{
		gormsearch.WithLogger[T](logger),
		gormsearch.WithBuilderOptions[T](gormfilter.WithCoercion(cfg.Coercion)),
		gormsearch.WithSearchHooks(
			searchspec.WithLogging[T](logger),
			searchspec.EnsureComplexity[T](filter.DefaultLimits),
			searchspec.EnsurePageSize[T](cfg.DefaultPageSize, cfg.MaxPageSize),
			searchspec.EnsurePrimarySort[T](&filter.SortRequest{Key: "id", Direction: filter.SortDirectionAsc}),
		),
	}
}

func createDirectoryView(db *gorm.DB) error {
	return db.Migrator().CreateView(DirectoryEntry{}.TableName(), gorm.ViewOption{
		Replace: true,
		Query: db.Table("employees AS e").
			Select("e.id, e.name, e.email, d.name AS department_name, d.code AS department_code").
			Joins("JOIN departments d ON d.id = e.department_id"),
	})
}

func newHandler(db *gorm.DB, cfg *config.Config, logger logrus.FieldLogger) http.Handler {
	opts := searchhttp.Options{Logger: logger}
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Metrics = searchhttp.NewMetrics(reg)
	}

	e := searchhttp.NewEngine(opts)
	searchhttp.Register(e, "employees", gormsearch.NewRepository(db, repositoryOptions[Employee](cfg, logger)...), logger)
	searchhttp.Register(e, "departments", gormsearch.NewRepository(db, repositoryOptions[Department](cfg, logger)...), logger)
	searchhttp.Register(e, "managers", gormsearch.NewRepository(db, repositoryOptions[Manager](cfg, logger)...), logger)
	searchhttp.RegisterView(e, "directory", gormsearch.NewSearcher(db, repositoryOptions[DirectoryEntry](cfg, logger)...), logger)
	return e
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)

	if cfg.DSN == "" {
		return errors.New("dsn is required")
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	if err := db.AutoMigrate(&Manager{}, &Department{}, &Employee{}); err != nil {
		return errors.Wrap(err, "migrate")
	}
	if err := createDirectoryView(db); err != nil {
		return errors.Wrap(err, "create directory view")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(db, cfg, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
