package server

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/api/controller"
	"ctchen222/tic-tac-toe-minimax/internal/api/response"
	"ctchen222/tic-tac-toe-minimax/internal/api/service"
	"ctchen222/tic-tac-toe-minimax/internal/config"
	"ctchen222/tic-tac-toe-minimax/internal/events"
	"ctchen222/tic-tac-toe-minimax/internal/session"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

type Server struct {
	cfg        config.HTTP
	engine     *gin.Engine
	games      service.GameService
	subscriber events.Subscriber
	controller *controller.GameController
	upgrader   websocket.Upgrader

	// lifetime ends when the server shuts down; WebSocket sessions, which
	// Shutdown does not track, are bound to it.
	lifetime context.Context
}

func NewServer(cfg config.HTTP, games service.GameService, auth service.AuthService, subscriber events.Subscriber) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:        cfg,
		engine:     gin.New(),
		games:      games,
		subscriber: subscriber,
		controller: controller.NewGameController(games, auth),
		lifetime:   context.Background(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	s.RegisterHandlers()
	return s
}

func (s *Server) RegisterHandlers() {
	s.engine.Use(gin.Recovery(), traceRequests())

	s.engine.GET("/healthz", func(c *gin.Context) {
		response.SuccessResponse(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api/games")
	api.POST("", s.controller.Create)

	games := api.Group("/:id", s.controller.RequireGameToken())
	games.GET("", s.controller.Get)
	games.POST("/moves", s.controller.Play)
	games.POST("/restart", s.controller.Restart)

	s.engine.GET("/ws/:id", s.controller.RequireGameToken(), s.handleWebSocket)

	if s.cfg.WebDir != "" {
		s.engine.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.cfg.WebDir))))
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is done, then shuts down gracefully.
// Open WebSocket sessions are told to close when ctx ends.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.lifetime = ctx

	srv := &http.Server{
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "HTTP server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

// handleWebSocket upgrades the connection and serves it as a session of the
// game named in the path. The token has already been checked.
func (s *Server) handleWebSocket(c *gin.Context) {
	gameID := c.Param("id")
	ctx, span := tracer.Start(c.Request.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("game.id", gameID),
	))
	defer span.End()

	if _, err := s.games.Get(ctx, gameID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Game lookup failed")
		response.ErrorResponse(c, response.StatusFor(err), response.Message(err))
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "Failed to upgrade connection", "game.id", gameID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	// The session keeps the request's trace but ends with the server, not
	// with the hijacked request.
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(s.lifetime, cancel)
	defer stop()

	sess := session.NewSession(gameID, conn, s.games, s.subscriber, s.cfg.HeartbeatInterval)
	if err := sess.Run(sessionCtx); err != nil {
		slog.ErrorContext(ctx, "Session failed", "game.id", gameID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Session failed")
	}
}

// traceRequests opens a server span per request, continuing any trace the
// client propagated, and logs the result.
func traceRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", c.FullPath()),
			),
		)
		defer span.End()

		start := time.Now()
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		slog.DebugContext(ctx, "HTTP request",
			"http.method", c.Request.Method,
			"http.path", c.Request.URL.Path,
			"http.status_code", status,
			"elapsed", time.Since(start),
		)
	}
}
