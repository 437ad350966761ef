package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/RachelH1213/lab25fall-fourth-project/internal/httpserv"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/rendezvous"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/story"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "echotale-server",
		Short:   "Rendezvous and signaling server for Echo Tale",
		Long: `The server pairs exactly two players per room code, deals each pair a
story template with per-member prompts, and relays the WebRTC handshake
between them. Story content never passes through it.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	flags := cmd.Flags()
	flags.String("listen", ":8080", "Address to listen on")
	flags.StringSlice("allowed-origins", []string{"*"}, "Allowed CORS origins for browser clients")
	flags.Bool("debug", false, "Enable debug logging")

	// Every flag is also settable via ECHOTALE_* environment variables,
	// e.g. ECHOTALE_LISTEN=:9000.
	viper.SetEnvPrefix("ECHOTALE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	flags.VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	return cmd
}

func run() error {
	logger, err := buildLogger(viper.GetBool("debug"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	catalog := story.DefaultCatalog()
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("template catalog: %w", err)
	}

	registry := rendezvous.NewRegistry()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	hub := rendezvous.NewHub(registry, catalog, rng, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              viper.GetString("listen"),
		Handler:           httpserv.NewRouter(hub, logger, viper.GetStringSlice("allowed-origins")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rendezvous server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
