package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zpam/spam-nb/pkg/milter"
)

var (
	milterNetwork string
	milterAddress string
)

var milterCmd = &cobra.Command{
	Use:   "milter",
	Short: "Start milter server for Postfix/Sendmail integration",
	Long: `Start the ZPAM NB milter server and classify incoming mail with the
trained model as the MTA receives it.

Every message gets status and probability headers. With milter.reject_spam
set, messages whose spam probability reaches milter.reject_probability are
rejected with a 550.

For Postfix integration, add to main.cf:
  smtpd_milters = inet:127.0.0.1:7357
  non_smtpd_milters = inet:127.0.0.1:7357
  milter_default_action = accept`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if cmd.Flags().Changed("network") {
			s.cfg.Milter.Network = milterNetwork
		}
		if cmd.Flags().Changed("address") {
			s.cfg.Milter.Address = milterAddress
		}
		if err := s.cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		model, err := s.loadModel(ctx)
		if err != nil {
			return err
		}

		server, err := milter.NewServer(s.cfg.Milter, model, s.reader, s.logger)
		if err != nil {
			return fmt.Errorf("failed to create milter server: %w", err)
		}

		listener, err := net.Listen(s.cfg.Milter.Network, s.cfg.Milter.Address)
		if err != nil {
			return fmt.Errorf("failed to create listener: %w", err)
		}
		defer listener.Close()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		fmt.Printf("🫏 ZPAM NB Milter Server starting on %s://%s\n",
			s.cfg.Milter.Network, s.cfg.Milter.Address)
		fmt.Printf("🧠 Model '%s': %d features, P(spam) = %.4f\n",
			s.cfg.Model.Name, model.Vocabulary().Len(), model.PSpam())
		fmt.Printf("⚡ Performance: max %d concurrent connections, %dms timeouts\n",
			s.cfg.Milter.MaxConcurrentConnections, s.cfg.Milter.ReadTimeoutMs)
		if s.cfg.Milter.RejectSpam {
			fmt.Printf("🎯 Rejecting spam with P(spam) >= %.2f\n", s.cfg.Milter.RejectProbability)
		}
		fmt.Printf("🚀 Press Ctrl+C to stop\n\n")

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- server.Serve(ctx, listener)
		}()

		select {
		case <-sigChan:
			fmt.Printf("\n🛑 Shutdown signal received, stopping milter server...\n")
			cancel()

			grace := time.Duration(s.cfg.Milter.GracefulShutdownTimeout)*time.Millisecond + time.Second
			select {
			case err := <-serverErr:
				if err != nil && !errors.Is(err, context.Canceled) {
					fmt.Printf("⚠️  Server shutdown with error: %v\n", err)
				} else {
					fmt.Printf("✅ Milter server stopped gracefully\n")
				}
			case <-time.After(grace):
				fmt.Printf("⏰ Shutdown timeout exceeded, forcing stop\n")
				_ = server.Close()
			}

		case err := <-serverErr:
			if err != nil {
				return err
			}
		}

		s.logger.Info("milter stopped", zap.Uint64("milters", server.Stats().MilterCount))
		return nil
	},
}

func init() {
	milterCmd.Flags().StringVarP(&milterNetwork, "network", "n", "", "Network type (tcp or unix)")
	milterCmd.Flags().StringVarP(&milterAddress, "address", "a", "", "Bind address (e.g., 127.0.0.1:7357 or /tmp/zpam-nb.sock)")
}
