package storage

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/prtkgoswami/gears-connect/internal/auth"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/upload", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Files []File `json:"files"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		urls, err := svc.Upload(c.Context(), auth.SessionFromCtx(c).UserID, body.Files)
		if err != nil {
			return uploadError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"urls": urls})
	})

	r.Delete("/", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			URLs []string `json:"urls"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		results, err := svc.DeleteBatch(c.Context(), body.URLs)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"results": results})
	})
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, ErrNoFiles), errors.Is(err, ErrTooManyFiles), errors.Is(err, ErrBadPayload):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
