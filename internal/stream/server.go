package stream

import (
	"encoding/json"
	"log"

	"github.com/nelasy5/blockmon/internal/bus"

	"github.com/gofiber/fiber/v2"
)

// Server принимает подписанные вебхуки и складывает батчи в events.
type Server struct {
	app    *fiber.App
	secret string
	events chan<- bus.Batch
}

func NewServer(secret string, events chan<- bus.Batch) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		secret: secret,
		events: events,
	}
	s.app.Post("/webhook", s.handleWebhook)
	return s
}

func (s *Server) handleWebhook(c *fiber.Ctx) error {
	body := c.Body()
	sig := c.Get("x-signature")

	if !VerifySignature(body, sig, s.secret) {
		log.Printf("[webhook] invalid signature, %d bytes dropped", len(body))
		return c.Status(fiber.StatusBadRequest).SendString("invalid signature")
	}

	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		log.Printf("[webhook] bad payload: %v", err)
		return c.Status(fiber.StatusBadRequest).SendString("bad payload")
	}

	batch := Normalize(p)
	if len(batch.Txs) > 0 {
		// Не блокируем обработчик на переполненном буфере: источник
		// перепошлёт вебхук после 503.
		select {
		case s.events <- batch:
		default:
			log.Printf("[webhook] events buffer full, rejecting %d txs", len(batch.Txs))
			return c.Status(fiber.StatusServiceUnavailable).SendString("busy")
		}
	}

	return c.SendString("ok")
}

func (s *Server) Listen(addr string) error {
	log.Printf("[webhook] listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }
