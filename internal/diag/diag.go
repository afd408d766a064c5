// Package diag streams live environment telemetry over a websocket so
// operators can watch a running server without attaching a game client.
package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mkarren/voidbelt/internal/env"
)

// writeWait bounds how long a frame write may block before the subscriber
// is considered gone.
const writeWait = 10 * time.Second

// defaultInterval is the telemetry push cadence when none is configured.
const defaultInterval = time.Second

// StatsFunc supplies the current environment statistics.
type StatsFunc func() env.Statistics

// SystemFrame is one sub-system's share of a telemetry sample.
type SystemFrame struct {
	Elements     int     `json:"elements"`
	UpdateMillis float64 `json:"updateMs"`
	RenderMillis float64 `json:"renderMs"`
}

// Frame is one telemetry sample pushed to subscribers.
type Frame struct {
	At            int64                  `json:"at"`
	Preset        string                 `json:"preset,omitempty"`
	LOD           string                 `json:"lod"`
	FPS           float64                `json:"fps"`
	UpdateMillis  float64                `json:"updateMs"`
	RenderMillis  float64                `json:"renderMs"`
	TotalElements int                    `json:"elements"`
	ActiveSystems int                    `json:"activeSystems"`
	MemoryBytes   int64                  `json:"memoryBytes"`
	Systems       map[string]SystemFrame `json:"systems"`
}

// buildFrame converts a statistics snapshot into the wire sample.
func buildFrame(stats env.Statistics, at time.Time) Frame {
	frame := Frame{
		At:            at.UnixMilli(),
		Preset:        string(stats.Preset),
		LOD:           stats.Performance.LOD.String(),
		FPS:           stats.Performance.FPS,
		UpdateMillis:  stats.Performance.UpdateMillis,
		RenderMillis:  stats.Performance.RenderMillis,
		TotalElements: stats.Performance.TotalElements,
		ActiveSystems: stats.Performance.ActiveSystems,
		MemoryBytes:   stats.Performance.MemoryBytes,
		Systems:       make(map[string]SystemFrame, len(stats.Systems)),
	}
	for name, st := range stats.Systems {
		frame.Systems[name] = SystemFrame{
			Elements:     st.Elements,
			UpdateMillis: st.UpdateMillis,
			RenderMillis: st.RenderMillis,
		}
	}
	return frame
}

// Server pushes telemetry frames to websocket subscribers.
type Server struct {
	stats    StatsFunc
	log      *zap.Logger
	interval time.Duration
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewServer creates a telemetry server reading samples from stats.
// A zero interval uses the default one-second cadence.
func NewServer(stats StatsFunc, interval time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultInterval
	}

	s := &Server{
		stats:    stats,
		log:      log,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)
	s.mux = mux
	return s
}

// Handler exposes the telemetry routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves telemetry on addr until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("telemetry listening", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// handleWS upgrades the connection and pushes frames until the subscriber
// goes away. The stream is push-only; inbound messages are discarded.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("telemetry upgrade", zap.Error(err))
		return
	}
	defer conn.Close()
	s.log.Info("telemetry subscriber connected", zap.String("remote", conn.RemoteAddr().String()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.writeFrame(conn); err != nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			s.log.Info("telemetry subscriber gone", zap.String("remote", conn.RemoteAddr().String()))
			return
		case <-ticker.C:
			if err := s.writeFrame(conn); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn) error {
	frame := buildFrame(s.stats(), time.Now())
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
