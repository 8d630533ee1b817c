package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/cerebro/internal/cerebro"
	"github.com/ppiankov/cerebro/internal/httpapi"
	"github.com/ppiankov/cerebro/internal/policy"
	"github.com/ppiankov/cerebro/internal/ratelimit"
	"github.com/ppiankov/cerebro/internal/server"
	"github.com/ppiankov/cerebro/internal/verification"
)

const shutdownTimeout = 10 * time.Second

var (
	serveGRPCPort     int
	serveHTTPAddr     string
	servePolicy       string
	serveAuditLog     string
	serveVerification string
	serveRateLimit    int
	serveRateWindow   time.Duration
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&serveGRPCPort, "grpc-port", 50051, "gRPC listen port")
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http-addr", ":8080", "HTTP/JSON listen address (empty disables)")
	serveCmd.Flags().StringVar(&servePolicy, "policy", "", "Path to policy YAML (default ~/.cerebro/policy.yaml)")
	serveCmd.Flags().StringVar(&serveAuditLog, "audit-log", "", "Path to audit log JSONL file")
	serveCmd.Flags().StringVar(&serveVerification, "verification-store", "memory", "Verification store: memory, sqlite:<path> or redis:<addr>")
	serveCmd.Flags().IntVar(&serveRateLimit, "rate-limit", 0, "Max requests per client per window on each surface (0 disables)")
	serveCmd.Flags().DurationVar(&serveRateWindow, "rate-window", time.Minute, "Rate limit window")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the decision server",
	Long: "Serves decisions over gRPC and, unless --http-addr is empty, HTTP/JSON.\n" +
		"The policy file is hot-reloaded; a policy that fails validation is\n" +
		"rejected and the previous one stays in effect.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := log()

	store, err := verification.Open(ctx, serveVerification)
	if err != nil {
		return fmt.Errorf("failed to open verification store: %w", err)
	}

	svc, err := cerebro.Load(cerebro.Options{
		PolicyPath:   servePolicy,
		AuditLogPath: serveAuditLog,
		Store:        store,
		Logger:       log,
	})
	if err != nil {
		store.Close()
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Close(closeCtx); err != nil {
			log.Warn("service close", zap.Error(err))
		}
	}()

	log.Info("policy loaded",
		zap.String("policy_hash", svc.PolicyHash()),
		zap.String("verification_store", serveVerification),
	)

	limit := ratelimit.Limit{MaxRequests: serveRateLimit, Window: serveRateWindow}
	grpcCfg := server.Config{Port: serveGRPCPort}
	var httpOpts []httpapi.Option
	if limit.Enabled() {
		grpcCfg.RateLimit = ratelimit.New(limit)
		httpOpts = append(httpOpts, httpapi.WithRateLimit(ratelimit.New(limit)))
		log.Info("rate limiting enabled",
			zap.Int("max_requests", limit.MaxRequests),
			zap.Duration("window", limit.Window))
	}
	grpcSrv := server.New(svc, grpcCfg, log)

	policyPath := servePolicy
	if policyPath == "" {
		policyPath = policy.DefaultPath()
	}
	reloader, err := server.NewReloader(svc, []string{policyPath}, log)
	if err != nil {
		log.Warn("hot-reload disabled", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return grpcSrv.Serve()
	})
	g.Go(func() error {
		<-gctx.Done()
		grpcSrv.GracefulStop()
		return nil
	})

	if serveHTTPAddr != "" {
		httpSrv := &http.Server{
			Addr:              serveHTTPAddr,
			Handler:           httpapi.NewRouter(svc, log, httpOpts...),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("http listening", zap.String("addr", serveHTTPAddr))
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
	}

	if reloader != nil {
		if len(reloader.Paths()) > 0 {
			log.Info("hot-reload enabled", zap.Strings("paths", reloader.Paths()))
		}
		g.Go(func() error {
			return reloader.Run(gctx)
		})
	}

	err = g.Wait()
	fmt.Fprintln(os.Stderr, "decision server stopped")
	return err
}
