// Package loop wires a local game server and a terminal client together for
// single-player sessions. Multiplayer deployments use the server and client
// subpackages directly; this bootstrapper exists so the game can run in a
// plain terminal without the SSH stack.
package loop

import (
	"bufio"
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/mkarren/voidbelt/internal/draw"
	"github.com/mkarren/voidbelt/internal/env"
	"github.com/mkarren/voidbelt/internal/loop/client"
	"github.com/mkarren/voidbelt/internal/loop/server"
)

// Options configures a local single-player session.
type Options struct {
	Env      env.Settings // Environment settings, zero value for defaults
	Preset   env.Preset   // Scene preset applied at startup, empty for none
	Username string       // Shown on the HUD; empty picks a generated callsign
	TermSize draw.TermSizeFunc
	Logger   *zap.Logger
}

// Run hosts a server in-process and attaches a single client to it.
// Blocks until the player quits.
func Run(r *bufio.Reader, w io.Writer, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	srv, err := server.NewServer(server.Options{
		Env:    opts.Env,
		Preset: opts.Preset,
		Logger: log.Named("server"),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	c := client.NewClient(srv, r, w, client.ClientOptions{
		Username:     opts.Username,
		TermSizeFunc: opts.TermSize,
	})
	return c.Run()
}
