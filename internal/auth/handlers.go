package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const genericAuthMessage = "Authentication failed. Please try again."

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/register", func(c *fiber.Ctx) error {
		var req RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		account, tokens, err := svc.Register(c.Context(), req)
		if err != nil {
			return authError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": account, "tokens": tokens})
	})

	r.Post("/login", func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "email and password required")
		}
		_, resp, err := svc.Login(c.Context(), req)
		if err != nil {
			return authError(c, err)
		}
		return c.JSON(resp)
	})

	r.Post("/refresh", func(c *fiber.Ctx) error {
		var req RefreshRequest
		if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
			return fiber.NewError(fiber.StatusBadRequest, "refresh_token required")
		}

		sess, err := svc.ValidateRefreshToken(c.Context(), req.RefreshToken)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		resp, err := svc.GenerateTokens(c.Context(), sess.UserID, sess.Username)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(resp)
	})

	r.Get("/jwt/verify", func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		sess, err := svc.ValidateAccessToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		return c.JSON(sess)
	})
}

// authError surfaces coded auth errors verbatim; everything else collapses
// to a generic retry message.
func authError(c *fiber.Ctx, err error) error {
	var coded *Error
	if errors.As(err, &coded) {
		status := fiber.StatusConflict
		if coded.Code == CodeInvalidCredentials {
			status = fiber.StatusUnauthorized
		}
		return c.Status(status).JSON(coded)
	}
	if strings.Contains(err.Error(), "required") {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, genericAuthMessage)
}
