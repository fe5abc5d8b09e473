// Package server exposes the consolidation engine over HTTP.
package server

import (
	"errors"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/cohesivestack/valgo"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/engine"
)

// Server routes HTTP requests to an engine.
type Server struct {
	app    *fiber.App
	engine *engine.Engine
}

// New constructs a server around the engine.
func New(eng *engine.Engine) *Server {
	srv := &Server{
		app: fiber.New(fiber.Config{
			AppName:      "recall",
			ServerHeader: "Recall-Server",
		}),
		engine: eng,
	}

	srv.app.Use(logger.New(), healthcheck.NewHealthChecker())
	srv.app.Get("/healthz", srv.handleHealth)
	srv.app.Post("/memories/process", srv.handleProcess)
	srv.app.Get("/memories/retrieve", srv.handleRetrieve)
	srv.app.Post("/memories", srv.handleAdd)
	return srv
}

// Listen serves until the listener fails.
func (srv *Server) Listen(addr string) error {
	log.Info("listening", "addr", addr)
	return srv.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// App exposes the fiber app, mainly for tests.
func (srv *Server) App() *fiber.App {
	return srv.app
}

// Shutdown drains in-flight requests and stops the listener.
func (srv *Server) Shutdown() error {
	return srv.app.Shutdown()
}

func (srv *Server) handleHealth(c fiber.Ctx) error {
	return c.SendString("OK")
}

func (srv *Server) handleProcess(c fiber.Ctx) error {
	var req engine.ProcessRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	val := valgo.Is(valgo.String(req.Message, "message").Not().Blank()).
		Is(valgo.String(req.UserID, "userId").Not().Blank()).
		Is(valgo.String(req.ConversationID, "conversationId").Not().Blank())
	if !val.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": val.Errors(),
		})
	}

	result, err := srv.engine.ProcessMessage(c.Context(), req)
	if err != nil {
		return srv.fail(c, err)
	}
	return c.JSON(result)
}

func (srv *Server) handleRetrieve(c fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing required query parameter 'q'"})
	}

	topK := 0
	if raw := c.Query("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid 'top_k' parameter"})
		}
		topK = parsed
	}

	results, err := srv.engine.Query(c.Context(), query, topK)
	if err != nil {
		return srv.fail(c, err)
	}
	if results == nil {
		results = []core.ScoredMemory{}
	}
	return c.JSON(results)
}

type addRequest struct {
	Content string `json:"content"`
	OwnerID string `json:"userId"`
}

func (srv *Server) handleAdd(c fiber.Ctx) error {
	var req addRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if val := valgo.Is(valgo.String(req.Content, "content").Not().Blank()); !val.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": val.Errors(),
		})
	}

	rec, err := srv.engine.AddDirect(c.Context(), req.Content, req.OwnerID)
	if err != nil {
		return srv.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// fail maps engine errors onto HTTP statuses: validation problems are
// the caller's fault, provider outages are an upstream failure, and
// everything else is internal.
func (srv *Server) fail(c fiber.Ctx, err error) error {
	var (
		valErr   *core.ValidationError
		provErr  *core.ProviderError
		storeErr *core.StoreError
	)
	switch {
	case errors.As(err, &valErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": valErr.Error()})
	case errors.As(err, &provErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": provErr.Error()})
	case errors.Is(err, core.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.As(err, &storeErr):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": storeErr.Error()})
	default:
		log.Error("request failed", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
