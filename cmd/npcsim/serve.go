package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/FREDSAYS-dev/Thesis/internal/gateway"
	"github.com/FREDSAYS-dev/Thesis/internal/sim"
)

// liveServer streams a running session. Arena events go to every WebSocket
// client and learner tables stay readable while the runner updates them.
type liveServer struct {
	sess            *session
	hub             *gateway.Hub
	log             zerolog.Logger
	checkpointEvery int
}

func (a *app) newLiveServer(ctx context.Context, s *session, checkpointEvery int) *liveServer {
	l := &liveServer{sess: s, log: a.log, checkpointEvery: checkpointEvery}
	l.hub = gateway.New(l.snapshot, a.log)

	if tps := a.cfg.Server.TicksPerSecond; tps > 0 {
		s.runner.Limiter = rate.NewLimiter(rate.Limit(tps), 1)
	}
	s.runner.Observer = func(ev sim.Event) { l.observe(ctx, ev) }
	return l
}

func (l *liveServer) observe(ctx context.Context, ev sim.Event) {
	if err := l.hub.Broadcast(ev); err != nil {
		l.log.Warn().Err(err).Msg("broadcast failed")
	}
	if ev.Type == sim.EventEpisodeEnd && l.checkpointEvery > 0 && ev.Episode%l.checkpointEvery == 0 {
		if err := l.sess.checkpoint(ctx); err != nil {
			l.log.Warn().Err(err).Msg("checkpoint failed")
		}
	}
}

func (l *liveServer) snapshot(id string) (any, bool) {
	t := l.sess.mgr.Table(id)
	if t == nil {
		return nil, false
	}
	return t.Snapshot(), true
}

func (l *liveServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", l.hub.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/matrix", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("npc")
		if id == "" {
			id = npcID
		}
		snap, ok := l.snapshot(id)
		if !ok {
			http.Error(w, "unknown npc", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(snap)
	})
	return mux
}

func serveCmd() *cobra.Command {
	var checkpointEvery int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run episodes continuously and stream them over WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := a.newSession(ctx, sessionMode{Live: true})
			if err != nil {
				return err
			}
			defer s.Close()

			live := a.newLiveServer(ctx, s, checkpointEvery)
			srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: live.routes()}
			errCh := make(chan error, 1)
			go func() {
				a.log.Info().Str("addr", srv.Addr).Msg("serving")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
					stop()
				}
				close(errCh)
			}()

			runErr := s.runner.Run(ctx)
			stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.Warn().Err(err).Msg("shutdown")
			}
			if err := s.checkpoint(shutdownCtx); err != nil {
				a.log.Warn().Err(err).Msg("final checkpoint failed")
			}
			if err := <-errCh; err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().IntVar(&checkpointEvery, "checkpoint-every", 50, "episodes between checkpoints (0 disables)")
	return cmd
}
