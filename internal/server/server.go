package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Swathi-CG04/collaborative-canvas/internal/board"
	"github.com/Swathi-CG04/collaborative-canvas/internal/config"
	"github.com/Swathi-CG04/collaborative-canvas/internal/handler"
)

// Server fiber app wrapper
type Server struct {
	app              *fiber.App
	cfg              *config.Config
	boardWSHandler   *handler.BoardWSHandler
	boardHTTPHandler *handler.BoardHTTPHandler
}

// New builds the server and its handlers over one shared room store
func New(cfg *config.Config) *Server {
	app := fiber.New(fiber.Config{
		AppName:         "Collaborative Canvas",
		ServerHeader:    "Fiber",
		StrictRouting:   true,
		CaseSensitive:   true,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		Prefork:         false, // incompatible with websocket state
		ReadBufferSize:  16384,
		WriteBufferSize: 16384,
		BodyLimit:       cfg.Board.MaxMessageBytes,
	})

	store := board.NewStore()

	return &Server{
		app:              app,
		cfg:              cfg,
		boardWSHandler:   handler.NewBoardWSHandler(store),
		boardHTTPHandler: handler.NewBoardHTTPHandler(store),
	}
}

// SetupMiddleware installs the middleware chain
func (s *Server) SetupMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Drawing client assets
	s.app.Static("/", s.cfg.Server.ClientDir)
}

// SetupRoutes installs routes
func (s *Server) SetupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	apiLimiter := limiter.New(limiter.Config{
		Max:        s.cfg.Board.APIRateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	s.app.Get("/api/board", apiLimiter, s.boardHTTPHandler.GetBoard)

	// Websocket upgrade gate
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	s.app.Get("/ws/board", websocket.New(s.boardWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:   s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  s.cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout: s.cfg.WebSocket.HandshakeTimeout,
	}))
}

// Start runs the server with graceful shutdown on SIGINT/SIGTERM
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Collaborative canvas listening on %s", s.cfg.Server.Port)
	log.Printf("Websocket endpoint: ws://localhost%s/ws/board", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown stops the server
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
