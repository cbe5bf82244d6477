package milter

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/d--j/go-milter"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/zpam/spam-nb/pkg/config"
	"github.com/zpam/spam-nb/pkg/learning"
)

// Decoder turns a raw message into classifiable text
type Decoder interface {
	Decode(raw []byte) string
}

// Server serves a trained model to an MTA over the milter protocol
type Server struct {
	config    config.MilterConfig
	milterSrv *milter.Server
}

// NewServer creates a milter server that classifies every message with model
func NewServer(cfg config.MilterConfig, model *learning.Model, decoder Decoder, logger *zap.Logger) (*Server, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: milter needs a trained model", learning.ErrInvalidModel)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var milterOpts []milter.Option

	// Protocol options (what events to skip)
	var skipProtocols milter.OptProtocol
	if cfg.SkipConnect {
		skipProtocols |= milter.OptNoConnect
	}
	if cfg.SkipHelo {
		skipProtocols |= milter.OptNoHelo
	}
	if cfg.SkipMail {
		skipProtocols |= milter.OptNoMailFrom
	}
	if cfg.SkipRcpt {
		skipProtocols |= milter.OptNoRcptTo
	}
	if skipProtocols != 0 {
		milterOpts = append(milterOpts, milter.WithProtocol(skipProtocols))
	}

	if cfg.AddSpamHeaders {
		milterOpts = append(milterOpts, milter.WithAction(milter.OptAddHeader))
	}

	if cfg.ReadTimeoutMs > 0 {
		milterOpts = append(milterOpts, milter.WithReadTimeout(
			time.Duration(cfg.ReadTimeoutMs)*time.Millisecond))
	}
	if cfg.WriteTimeoutMs > 0 {
		milterOpts = append(milterOpts, milter.WithWriteTimeout(
			time.Duration(cfg.WriteTimeoutMs)*time.Millisecond))
	}

	milterOpts = append(milterOpts, milter.WithMilter(func() milter.Milter {
		return NewHandler(cfg, model, decoder, logger)
	}))

	return &Server{
		config:    cfg,
		milterSrv: milter.NewServer(milterOpts...),
	}, nil
}

// Serve accepts connections until ctx is cancelled or the listener fails
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.milterSrv.Serve(s.limit(listener))
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(s.config.GracefulShutdownTimeout)*time.Millisecond,
		)
		defer cancel()

		if err := s.milterSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown milter server: %w", err)
		}
		return ctx.Err()

	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("milter server error: %w", err)
		}
		return nil
	}
}

// limit caps the number of MTA connections served at once
func (s *Server) limit(listener net.Listener) net.Listener {
	if s.config.MaxConcurrentConnections <= 0 {
		return listener
	}
	return netutil.LimitListener(listener, s.config.MaxConcurrentConnections)
}

// Close closes the milter server
func (s *Server) Close() error {
	return s.milterSrv.Close()
}

// Stats returns server statistics
func (s *Server) Stats() ServerStats {
	return ServerStats{
		MilterCount: s.milterSrv.MilterCount(),
	}
}

// ServerStats contains server statistics
type ServerStats struct {
	MilterCount uint64 // Total number of milter instances created
}
