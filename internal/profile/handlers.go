package profile

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prtkgoswami/gears-connect/internal/auth"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		profile, err := svc.GetProfile(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "profile not found")
		}
		return c.JSON(profile)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		sess := auth.SessionFromCtx(c)
		if sess.UserID != c.Params("id") {
			return fiber.NewError(fiber.StatusForbidden, "cannot edit another user's profile")
		}

		var patch ProfileUpdate
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		profile, err := svc.UpdateProfile(c.Context(), sess.UserID, patch)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(profile)
	})
}
