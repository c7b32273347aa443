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

	"wishera-chat/internal/auth"
	"wishera-chat/internal/config"
	"wishera-chat/internal/log"
	"wishera-chat/internal/models"
	"wishera-chat/internal/redis"
	"wishera-chat/internal/ws"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"
)

const sessionCheckInterval = time.Minute

var errNoIdentity = errors.New("no identity: set WISHERA_TOKEN, WISHERA_SESSION_FILE or WISHERA_USER_ID")

func main() {
	cfg := config.Load()
	log.Config(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sig
		slog.InfoContext(ctx, "received signal, initiating shutdown")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		slog.ErrorContext(ctx, "error running chat bridge", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var store *auth.FileStore
	if cfg.SessionFile != "" {
		store = auth.NewFileStore(cfg.SessionFile)
	}

	session, err := resolveSession(cfg, store, time.Now())
	if err != nil {
		return fmt.Errorf("resolveSession: %w", err)
	}

	handlers := ws.Handlers{
		OnStateChange: func(e ws.StateEvent) {
			slog.Info("[BRIDGE] Connection state changed", "from", e.Old, "to", e.New, "error", e.Err)
		},
		OnProtocolError: func(err error) {
			slog.Warn("[BRIDGE] Protocol error", "error", err)
		},
		OnMessageReceived: func(m models.ChatMessage) {
			slog.Debug("[BRIDGE] Message received", "id", m.ID, "from", m.FromUserId)
		},
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis.NewClient: %w", err)
		}
		defer redisClient.Close()

		handlers = redis.RelayHandlers(ctx, redisClient, session.UserId, handlers)
	}

	client, err := ws.NewClient(ws.Options{
		BaseURL:          cfg.APIURL,
		Token:            session.Token,
		HandshakeTimeout: cfg.HandshakeTimeout,
		Backoff: ws.Backoff{
			Initial:     cfg.ReconnectDelay,
			Max:         cfg.ReconnectMaxDelay,
			Factor:      cfg.ReconnectFactor,
			MaxAttempts: cfg.ReconnectMaxAttempts,
		},
	}, session.UserId, handlers)
	if err != nil {
		return fmt.Errorf("ws.NewClient: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(client),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.Run(ctx)
	})

	if redisClient != nil {
		g.Go(func() error {
			return redis.SubscribeToCommands(ctx, redisClient, session.UserId, client)
		})
	}

	if store != nil {
		g.Go(func() error {
			watchSession(ctx, store, session.UserId, client, sessionCheckInterval)
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("[BRIDGE] Health endpoint starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("srv.ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("errgroup.Wait: %w", err)
	}

	slog.Info("[BRIDGE] Stopped")
	return nil
}

// resolveSession picks the identity to connect as: an explicit token first,
// then the stored session, then a bare user id for token-less backends.
func resolveSession(cfg *config.Config, store *auth.FileStore, now time.Time) (auth.Session, error) {
	var (
		session auth.Session
		err     error
	)

	switch {
	case cfg.Token != "":
		if store != nil {
			session, err = store.Login(cfg.Token)
		} else {
			session, err = auth.ParseSession(cfg.Token)
		}
		if err != nil {
			return auth.Session{}, err
		}
		if session.Expired(now) {
			return auth.Session{}, auth.ErrExpired
		}

	case store != nil:
		session, err = store.CheckAuth(now)
		if err != nil {
			return auth.Session{}, fmt.Errorf("store.CheckAuth: %w", err)
		}

	case cfg.UserID != "":
		return auth.Session{UserId: cfg.UserID}, nil

	default:
		return auth.Session{}, errNoIdentity
	}

	if cfg.UserID != "" && cfg.UserID != session.UserId {
		slog.Warn("[BRIDGE] WISHERA_USER_ID ignored, token belongs to another user", "configured", cfg.UserID, "token", session.UserId)
	}

	return session, nil
}

// watchSession drops the connection once the stored session expires or is
// logged out, and resumes it when the same user signs in again.
// TODO: reconnects still send the token the bridge started with; pass the
// refreshed session token to the client once ws.Options can be updated.
func watchSession(ctx context.Context, store *auth.FileStore, userId string, client *ws.Client, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			client.SetUser(sessionUser(store, userId, time.Now()))
		}
	}
}

// sessionUser returns userId while the stored session still belongs to it,
// and "" otherwise.
func sessionUser(store *auth.FileStore, userId string, now time.Time) string {
	session, err := store.CheckAuth(now)
	if err != nil {
		slog.Debug("[BRIDGE] No valid session", "error", err)
		return ""
	}

	if session.UserId != userId {
		slog.Warn("[BRIDGE] Session belongs to another user, restart the bridge to switch", "user", session.UserId)
		return ""
	}

	return userId
}

type statusResponse struct {
	State     string `json:"state"`
	UserId    string `json:"userId"`
	Connected bool   `json:"connected"`
}

func newRouter(client *ws.Client) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if !client.Connected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(client.State().String()))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(statusResponse{
			State:     client.State().String(),
			UserId:    client.UserID(),
			Connected: client.Connected(),
		}); err != nil {
			slog.Error("[BRIDGE] Failed to write status", "error", err)
		}
	}).Methods(http.MethodGet)

	return r
}
