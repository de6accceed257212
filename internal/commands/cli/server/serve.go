// Package server provides the reader bridge command.
package server

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrei-cloud/go_mfra/internal/cli"
	"github.com/andrei-cloud/go_mfra/internal/config"
	"github.com/andrei-cloud/go_mfra/internal/device"
	"github.com/andrei-cloud/go_mfra/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Share the local reader over TCP",
		Long: `Expose the configured local reader to other go_mfra instances using the
remote driver. Requests are served one at a time.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("host", "localhost", "Server host")
	cmd.Flags().Int("port", 4455, "Server port")

	_ = viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(_ *cobra.Command, _ []string) error {
	cli.InitLogging()

	cfg := config.Get()
	opts := cli.DeviceOptions()
	if opts.Driver == device.Remote {
		return errors.New("cannot serve a remote reader, set device.driver to a local driver")
	}

	tr, err := cli.OpenDevice()
	if err != nil {
		return fmt.Errorf("error opening NFC reader: %w", err)
	}
	defer tr.Close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	srv, err := server.NewServer(addr, tr)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	log.Info().
		Str("event", "bridge_started").
		Str("address", addr).
		Str("reader", tr.String()).
		Msg("reader bridge listening")

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stopChan)

	<-stopChan
	log.Info().Msg("shutting down server...")

	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	return nil
}
