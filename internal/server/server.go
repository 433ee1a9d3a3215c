package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"ctchen222/adaptive-tictactoe/internal/api/controller"
	"ctchen222/adaptive-tictactoe/internal/api/middleware"
	"ctchen222/adaptive-tictactoe/internal/api/response"
	"ctchen222/adaptive-tictactoe/internal/api/service"
	"ctchen222/adaptive-tictactoe/internal/bot"
	"ctchen222/adaptive-tictactoe/internal/game"
	"ctchen222/adaptive-tictactoe/internal/session"
	customvalidator "ctchen222/adaptive-tictactoe/internal/validator"
	"ctchen222/adaptive-tictactoe/pkg/proto"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// AIvsAIRunner plays the bot against itself.
type AIvsAIRunner interface {
	RunAIvsAI(ctx context.Context, playerID string, difficulty bot.Difficulty, delay time.Duration, onStep func(session.Step) error) (*game.Session, error)
}

// Options wires the server's collaborators.
type Options struct {
	Player   *controller.PlayerController
	Settings *controller.SettingsController
	Game     *controller.GameController
	Stats    *controller.StatsController
	Move     *controller.MoveController

	Players           service.PlayerService
	AIvsAI            AIvsAIRunner
	AIDelay           time.Duration
	DefaultDifficulty bot.Difficulty
	Logger            *slog.Logger
}

type Server struct {
	router     *gin.Engine
	upgrader   websocket.Upgrader
	aivai      AIvsAIRunner
	delay      time.Duration
	difficulty bot.Difficulty
	logger     *slog.Logger
}

func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := customvalidator.RegisterCustom(v); err != nil {
			logger.Error("Failed to register request validators", "error", err)
		}
	}

	s := &Server{
		router: gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		aivai:      opts.AIvsAI,
		delay:      opts.AIDelay,
		difficulty: opts.DefaultDifficulty,
		logger:     logger,
	}
	s.router.Use(gin.Recovery(), middleware.RequestLogger(logger))
	s.registerHandlers(opts)
	return s
}

func (s *Server) registerHandlers(opts Options) {
	api := s.router.Group("/api")
	api.POST("/register", opts.Player.Register)
	api.POST("/login", opts.Player.Login)
	api.POST("/guest", opts.Player.GuestLogin)
	api.GET("/stats", opts.Stats.Stats)
	api.GET("/results/:id", opts.Stats.Result)
	api.GET("/games/:id", opts.Game.Get)
	api.POST("/move", opts.Move.BotMove)

	auth := api.Group("", middleware.Auth(opts.Players))
	auth.GET("/settings", opts.Settings.Get)
	auth.PUT("/settings", opts.Settings.Update)
	auth.POST("/games", opts.Game.Start)
	auth.POST("/games/:id/moves", opts.Game.Move)
	auth.DELETE("/games/:id", opts.Game.Abandon)
	auth.GET("/results", opts.Stats.Results)

	s.router.GET("/ws/aivai", s.handleAIvsAI)
}

// Engine returns the traced HTTP handler.
func (s *Server) Engine() http.Handler {
	return otelhttp.NewHandler(s.router, "http.server")
}

// handleAIvsAI upgrades the connection and streams one AI-vs-AI game,
// one message per move. The client may end the stream early with a "stop"
// message or by closing the connection.
func (s *Server) handleAIvsAI(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "server.handleAIvsAI", trace.WithAttributes(
		attribute.String("http.url", c.Request.URL.String()),
	))
	defer span.End()

	difficulty := s.difficulty
	if q := c.Query("difficulty"); q != "" {
		d, err := bot.ParseDifficulty(q)
		if err != nil {
			response.HandleError(c, err)
			return
		}
		difficulty = d
	}
	span.SetAttributes(attribute.String("game.difficulty", string(difficulty)))

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.readClient(ctx, conn, cancel)

	send := func(msg *proto.ServerToClientMessage) error {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	var empty game.Board
	if err := send(&proto.ServerToClientMessage{
		Type:       proto.TypeStart,
		Difficulty: string(difficulty),
		Board:      empty.Rows(),
		Next:       game.PlayerX,
	}); err != nil {
		span.RecordError(err)
		return
	}

	final, err := s.aivai.RunAIvsAI(ctx, "", difficulty, s.delay, func(step session.Step) error {
		pos := step.Move
		msg := &proto.ServerToClientMessage{
			Type:      proto.TypeMove,
			SessionID: step.SessionID,
			Mark:      step.Mark,
			Position:  &pos,
			Board:     step.Board.Rows(),
			Winner:    step.Winner,
			Draw:      step.Draw,
		}
		if step.Winner == game.None && !step.Draw {
			msg.Next = step.Mark.Opponent()
		}
		return send(msg)
	})
	if err != nil {
		if ctx.Err() != nil {
			s.logger.InfoContext(ctx, "AI-vs-AI stream stopped by client")
			return
		}
		s.logger.ErrorContext(ctx, "AI-vs-AI game failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "AI-vs-AI game failed")
		_ = send(&proto.ServerToClientMessage{Type: proto.TypeError, Reason: "game failed"})
		return
	}

	span.SetAttributes(attribute.String("session.id", final.ID))
	if err := send(&proto.ServerToClientMessage{
		Type:      proto.TypeGameOver,
		SessionID: final.ID,
		Board:     final.Game.Board.Rows(),
		Winner:    final.Game.Winner,
		Draw:      final.Game.IsDraw(),
	}); err != nil {
		span.RecordError(err)
		return
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
}

// readClient cancels the stream when the client disconnects or asks to stop.
func (s *Server) readClient(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg proto.ClientToServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.WarnContext(ctx, "Ignoring malformed client message", "error", err)
			continue
		}
		if err := customvalidator.GetValidator().Struct(msg); err != nil {
			s.logger.WarnContext(ctx, "Ignoring invalid client message", "type", msg.Type, "error", err)
			continue
		}
		if msg.Type == proto.TypeStop {
			return
		}
	}
}
