package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"framewise/app/config"
	"framewise/app/service/engine"
	"framewise/app/service/queue"
	"framewise/app/service/session"
	"framewise/app/service/transcript"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

// Engine processes one utterance against a session synchronously.
type Engine interface {
	ProcessUtterance(ctx context.Context, sessionID, text string) (session.Snapshot, error)
}

// Service is the HTTP surface of the dialogue tracker.
type Service struct {
	cfg           *config.Config
	engine        Engine
	sessionSvc    *session.Service
	queueSvc      *queue.Service
	transcriptSvc *transcript.Service

	app *fiber.App
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		cfg:           do.MustInvoke[*config.Config](di),
		engine:        do.MustInvoke[*engine.Service](di),
		sessionSvc:    do.MustInvoke[*session.Service](di),
		queueSvc:      do.MustInvoke[*queue.Service](di),
		transcriptSvc: do.MustInvoke[*transcript.Service](di),
	}

	s.app = newApp(s)

	return s, nil
}

func newApp(s *Service) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(recover.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)

	sessions := api.Group("/sessions/:id")
	sessions.Get("/", s.handleGetSession)
	sessions.Delete("/", s.handleDeleteSession)
	sessions.Post("/utterances", s.handlePostUtterance)
	sessions.Post("/utterances/async", s.handlePostUtteranceAsync)
	sessions.Get("/transcript", s.handleGetTranscript)

	return app
}

// Run serves the API until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("HTTP API listening", "addr", s.cfg.Server.Addr)

	if err := s.app.Listen(s.cfg.Server.Addr); err != nil {
		return fmt.Errorf("server listen: %w", err)
	}

	return nil
}

type utteranceRequest struct {
	Text string `json:"text"`
}

func (s *Service) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"sessions": s.sessionSvc.Count(),
	})
}

func (s *Service) handleGetSession(c *fiber.Ctx) error {
	sess, err := s.sessionSvc.Get(c.Params("id"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}

		return err
	}

	return c.JSON(sess.Snapshot())
}

func (s *Service) handleDeleteSession(c *fiber.Ctx) error {
	if err := s.sessionSvc.Remove(c.Params("id")); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}

		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Service) handlePostUtterance(c *fiber.Ctx) error {
	var req utteranceRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}

	snapshot, err := s.engine.ProcessUtterance(c.UserContext(), c.Params("id"), req.Text)
	if err != nil {
		slog.Error("Failed to process utterance",
			"session_id", c.Params("id"),
			"error", err,
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to process utterance"})
	}

	return c.JSON(snapshot)
}

func (s *Service) handlePostUtteranceAsync(c *fiber.Ctx) error {
	var req utteranceRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text is required"})
	}

	s.queueSvc.Add(c.Params("id"), req.Text)

	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Service) handleGetTranscript(c *fiber.Ctx) error {
	records, err := s.transcriptSvc.Recent(c.Params("id"), c.QueryInt("limit", 20))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read transcript"})
	}

	return c.JSON(fiber.Map{"records": records})
}
