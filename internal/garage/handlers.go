package garage

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/prtkgoswami/gears-connect/internal/auth"
)

var validate = validator.New()

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		ownerID := c.Query("owner_id")
		if ownerID == "" {
			ownerID = auth.SessionFromCtx(c).UserID
		}
		vehicles, err := svc.ListVehicles(c.Context(), ownerID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(vehicles)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		vehicle, err := svc.GetVehicle(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "vehicle not found")
		}
		return c.JSON(vehicle)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Vehicle
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		req.OwnerID = auth.SessionFromCtx(c).UserID
		if fields := fieldErrors(validate.Struct(req)); fields != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fields})
		}
		vehicle, err := svc.CreateVehicle(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(vehicle)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var patch VehicleUpdate
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if fields := fieldErrors(validate.Struct(patch)); fields != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fields})
		}
		vehicle, err := svc.UpdateVehicle(c.Context(), c.Params("id"), auth.SessionFromCtx(c).UserID, patch)
		if err != nil {
			if errors.Is(err, ErrNotOwner) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(vehicle)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteVehicle(c.Context(), c.Params("id"), auth.SessionFromCtx(c).UserID); err != nil {
			if errors.Is(err, ErrNotOwner) {
				return fiber.NewError(fiber.StatusForbidden, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

// fieldErrors flattens validator output into a field -> rule map so the
// client can render inline messages.
func fieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
