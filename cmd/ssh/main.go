package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/logging"
	"go.uber.org/zap"

	"github.com/mkarren/voidbelt/internal/config"
	"github.com/mkarren/voidbelt/internal/diag"
	"github.com/mkarren/voidbelt/internal/draw"
	"github.com/mkarren/voidbelt/internal/env"
	"github.com/mkarren/voidbelt/internal/loop/client"
	"github.com/mkarren/voidbelt/internal/loop/server"
	"github.com/mkarren/voidbelt/internal/score"
)

// Global game server - shared by all SSH clients
var (
	gameServer   *server.Server
	cancelServer context.CancelFunc
	serverOnce   sync.Once
	logger       *zap.Logger
)

func main() {
	cfg, err := config.LoadSSH()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("ssh config",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port),
		zap.String("hostKeyPath", cfg.HostKeyPath),
		zap.String("preset", cfg.Preset))

	settings, preset, err := resolveEnvironment(cfg.EnvFile, cfg.Quality, cfg.Preset)
	if err != nil {
		logger.Fatal("environment settings", zap.Error(err))
	}

	var scores *score.Store
	if cfg.DBPath != "" {
		scores, err = score.Open(cfg.DBPath)
		if err != nil {
			logger.Fatal("open score store", zap.String("path", cfg.DBPath), zap.Error(err))
		}
		defer func() { _ = scores.Close() }()
		logAllTimeBest(scores)
	}

	// Initialize and start the shared game server
	serverOnce.Do(func() {
		var ctx context.Context
		ctx, cancelServer = context.WithCancel(context.Background())
		gameServer, err = server.NewServer(server.Options{
			Env:    settings,
			Preset: preset,
			Scores: scores,
			Logger: logger.Named("game"),
		})
		if err != nil {
			logger.Fatal("create game server", zap.Error(err))
		}
		go gameServer.Run(ctx)
		if cfg.DiagAddr != "" {
			ds := diag.NewServer(gameServer.StatsSnapshot, 0, logger.Named("diag"))
			go func() {
				if err := ds.ListenAndServe(ctx, cfg.DiagAddr); err != nil {
					logger.Warn("diag server stopped", zap.Error(err))
				}
			}()
		}
		logger.Info("game server started")
	})

	opts := []ssh.Option{
		wish.WithAddress(net.JoinHostPort(cfg.Host, cfg.Port)),
		wish.WithMiddleware(
			gameMiddleware,
			activeterm.Middleware(),
			logging.Middleware(),
		),
		// Set TCP_NODELAY to reduce latency for game input
		ssh.WrapConn(func(ctx ssh.Context, conn net.Conn) net.Conn {
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn
		}),
	}

	if cfg.HostKeyPath != "" {
		opts = append(opts, wish.WithHostKeyPath(cfg.HostKeyPath))
	}

	s, err := wish.NewServer(opts...)
	if err != nil {
		logger.Fatal("create ssh server", zap.Error(err))
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting ssh server", zap.String("host", cfg.Host), zap.String("port", cfg.Port))
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			logger.Fatal("ssh server error", zap.Error(err))
		}
	}()

	<-done
	logger.Info("shutting down")

	// Gracefully shut down the game server: notify players and wait for them to disconnect
	if gameServer != nil {
		logger.Info("notifying connected players about shutdown")
		gameServer.Shutdown(15 * time.Second)
		cancelServer()
		logger.Info("game server stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", zap.Error(err))
	}
}

// resolveEnvironment builds the environment settings from the configured
// overlay file, quality override and preset name.
func resolveEnvironment(file, quality, preset string) (env.Settings, env.Preset, error) {
	settings := env.DefaultSettings()
	if file != "" {
		var err error
		settings, err = env.LoadSettings(file)
		if err != nil {
			return settings, "", fmt.Errorf("load settings: %w", err)
		}
	}
	if quality != "" {
		q, err := env.ParseQuality(quality)
		if err != nil {
			return settings, "", err
		}
		settings.Quality = q
	}
	return settings, env.Preset(preset), nil
}

// logAllTimeBest reports the persisted leaderboard at startup so operators
// can sanity-check the database without opening it.
func logAllTimeBest(scores *score.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	best, err := scores.Top(ctx, 5)
	if err != nil {
		logger.Warn("read leaderboard", zap.Error(err))
		return
	}
	for i, entry := range best {
		logger.Info("all-time best",
			zap.Int("rank", i+1),
			zap.String("username", entry.Username),
			zap.Int("score", entry.Score))
	}
}

// gameMiddleware handles SSH sessions and runs the game client.
func gameMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		pty, winCh, ok := sess.Pty()
		if !ok {
			fmt.Fprintln(sess, "Error: PTY required. Please connect with: ssh -t user@host")
			return
		}

		logger.Info("new game session",
			zap.String("user", sess.User()),
			zap.String("terminal", pty.Term),
			zap.Int("width", pty.Window.Width),
			zap.Int("height", pty.Window.Height))

		// Create a terminal size tracker that updates on window changes
		sizeTracker := newSizeTracker(pty.Window.Width, pty.Window.Height)

		// Listen for window size changes in a goroutine
		go func() {
			for win := range winCh {
				sizeTracker.update(win.Width, win.Height)
			}
		}()

		reader := bufio.NewReader(sess)
		clientOpts := client.ClientOptions{
			TermSizeFunc: sizeTracker.getSize,
			Username:     sess.User(),
		}

		// Create a new client connected to the shared game server
		c := client.NewClient(gameServer, reader, sess, clientOpts)
		if err := c.Run(); err != nil {
			logger.Warn("game error", zap.String("user", sess.User()), zap.Error(err))
		}

		logger.Info("session ended", zap.String("user", sess.User()))
		next(sess)
	}
}

// sizeTracker tracks terminal size from SSH window change events.
type sizeTracker struct {
	mu     sync.RWMutex
	width  int
	height int
}

func newSizeTracker(width, height int) *sizeTracker {
	return &sizeTracker{width: width, height: height}
}

func (s *sizeTracker) update(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

func (s *sizeTracker) getSize() (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height, nil
}

// Ensure sizeTracker.getSize satisfies draw.TermSizeFunc
var _ draw.TermSizeFunc = (*sizeTracker)(nil).getSize
