package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/approvals"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/audit"
	auditchain "github.com/adithya0597/AI-cold-email-generator-sub002/internal/audit/chain"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/autonomy"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/brake"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/cli/common"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/config"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/db"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/events"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/gate"
	gatinggorm "github.com/adithya0597/AI-cold-email-generator-sub002/internal/repo/gorm/gating"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/restrictions"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/security/rbac"
	httpserver "github.com/adithya0597/AI-cold-email-generator-sub002/internal/server/http"
	"github.com/adithya0597/AI-cold-email-generator-sub002/internal/telemetry"
)

func main() {
	var cfgFile string
	root := &cobra.Command{
		Use:   "gating-server",
		Short: "Autonomy gating service for the outreach agent platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfgFile)
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgFile string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	common.SetupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewProvider(ctx, telemetry.Config{
			ServiceName:   cfg.Telemetry.ServiceName,
			Endpoint:      cfg.Telemetry.Endpoint,
			Insecure:      cfg.Telemetry.Insecure,
			SamplingRatio: cfg.Telemetry.SamplingRatio,
		})
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Warn("telemetry shutdown", "error", err)
			}
		}()
	}

	gdb, err := db.Open(cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	repo, err := gatinggorm.New(gdb)
	if err != nil {
		return fmt.Errorf("migrate gating tables: %w", err)
	}

	settle := time.Duration(cfg.Brake.SettleSeconds) * time.Second
	var brakes brake.Store
	if cfg.Redis.URL != "" {
		rs, err := brake.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rs.Close()
		brakes = rs.WithSettleWindow(settle)
	} else {
		slog.Warn("no redis configured, using in-memory brake store (single process only)")
		brakes = brake.NewMemStore().WithSettleWindow(settle)
	}

	pub, err := events.New(events.Config{
		Backend:      cfg.Events.Backend,
		RedisURL:     firstNonEmpty(cfg.Events.RedisURL, cfg.Redis.URL),
		RedisStream:  cfg.Events.RedisStream,
		RedisMaxLen:  cfg.Events.RedisMaxLen,
		KafkaBrokers: cfg.Events.KafkaBrokers,
		KafkaTopic:   cfg.Events.KafkaTopic,
	})
	if err != nil {
		return err
	}
	defer pub.Close()

	recorder, err := buildRecorder(gdb, cfg.Audit.ChainFile)
	if err != nil {
		return err
	}

	store, err := approvals.NewGormStore(gdb)
	if err != nil {
		return fmt.Errorf("migrate approvals: %w", err)
	}
	queue := approvals.NewQueue(store, pub, time.Duration(cfg.Approvals.TTLHours)*time.Hour)

	var policySource restrictions.PolicySource = repo
	if cfg.Policy.File != "" {
		fs, err := restrictions.NewFileSource(cfg.Policy.File)
		if err != nil {
			return err
		}
		if err := fs.Watch(ctx); err != nil {
			slog.Warn("policy file watch failed, reloads disabled", "error", err)
		}
		policySource = fs
	}
	g := gate.New(brakes, autonomy.NewResolver(repo), restrictions.NewEvaluator(repo, policySource))

	var authz rbac.Authorizer = rbac.AllowAll{}
	if cfg.RBAC.PolicyFile != "" {
		ca, err := rbac.NewCasbin(cfg.RBAC.ModelFile, cfg.RBAC.PolicyFile)
		if err != nil {
			return err
		}
		authz = ca
	}

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httpserver.New(brakes, queue, g, pub, recorder, authz, cfg.HTTP.Tokens).Handler(),
	}
	go func() {
		slog.Info("admin surface listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server", "error", err)
			stop()
		}
	}()

	go sweepLoop(ctx, queue, time.Duration(cfg.Approvals.SweepMinutes)*time.Minute)

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildRecorder combines the durable activity table with the optional
// hash-chained file.
func buildRecorder(gdb *gorm.DB, chainFile string) (audit.Recorder, error) {
	rec, err := audit.NewGorm(gdb)
	if err != nil {
		return nil, fmt.Errorf("migrate activity log: %w", err)
	}
	if chainFile == "" {
		return rec, nil
	}
	cw, err := auditchain.NewWriter(chainFile)
	if err != nil {
		return nil, fmt.Errorf("open audit chain: %w", err)
	}
	return audit.NewMulti(rec, cw), nil
}

// sweepLoop tidies expired approvals; read-time expiry stays authoritative.
func sweepLoop(ctx context.Context, queue *approvals.Queue, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := queue.Sweep(ctx)
			if err != nil {
				slog.Warn("approval sweep failed", "error", err)
			} else if n > 0 {
				slog.Info("approval sweep", "expired", n)
			}
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
