package meetup

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/prtkgoswami/gears-connect/internal/auth"
	"github.com/prtkgoswami/gears-connect/internal/calendar"
)

var validate = validator.New()

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		meetups, err := svc.ListMeetups(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		filters := Filters{
			VehicleType:   c.Query("vehicle_type"),
			Exclusivity:   c.Query("exclusivity"),
			AvailableOnly: c.QueryBool("available_only"),
			WeekendOnly:   c.QueryBool("weekend_only"),
			EligibleOnly:  c.QueryBool("eligible_only"),
		}

		var ownedTypes []string
		if filters.EligibleOnly {
			ownedTypes, err = svc.VehicleTypesOwned(c.Context(), auth.SessionFromCtx(c).UserID)
			if err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}

		return c.JSON(ApplyFilters(meetups, filters, ownedTypes))
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		m, err := svc.GetMeetup(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "meetup not found")
		}
		return c.JSON(m)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req Meetup
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if fields := fieldErrors(validate.Struct(req)); fields != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fields})
		}
		m, err := svc.CreateMeetup(c.Context(), req, auth.SessionFromCtx(c).UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var patch MeetupUpdate
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		m, err := svc.UpdateMeetup(c.Context(), c.Params("id"), auth.SessionFromCtx(c).UserID, patch)
		if err != nil {
			return workflowError(err)
		}
		return c.JSON(m)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		if err := svc.DeleteMeetup(c.Context(), c.Params("id"), auth.SessionFromCtx(c).UserID); err != nil {
			return workflowError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/join", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			VehicleIDs []string `json:"vehicle_ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sess := auth.SessionFromCtx(c)
		m, err := svc.JoinMeetup(c.Context(), c.Params("id"), sess.UserID, sess.Username, body.VehicleIDs)
		if err != nil {
			return workflowError(err)
		}
		return c.JSON(m)
	})

	r.Get("/:id/eligible-vehicles", authMiddleware, func(c *fiber.Ctx) error {
		options, err := svc.ListEligibleVehicles(c.Context(), c.Params("id"), auth.SessionFromCtx(c).UserID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(options)
	})

	r.Get("/:id/calendar", authMiddleware, func(c *fiber.Ctx) error {
		m, err := svc.GetMeetup(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "meetup not found")
		}
		event := calendarEvent(m)
		return c.JSON(fiber.Map{
			"google":  calendar.GoogleLink(event),
			"outlook": calendar.OutlookLink(event),
			"yahoo":   calendar.YahooLink(event),
		})
	})

	r.Get("/:id/calendar.ics", authMiddleware, func(c *fiber.Ctx) error {
		m, err := svc.GetMeetup(c.Context(), c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "meetup not found")
		}
		c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+calendar.FileName(m.Title)+`"`)
		return c.Send(calendar.ICS(calendarEvent(m)))
	})
}

func calendarEvent(m Meetup) calendar.Event {
	return calendar.Event{
		UID:         m.ID,
		Title:       m.Title,
		Description: m.Description,
		Address:     m.Venue.Address,
		Start:       m.Date,
		Duration:    m.Duration,
	}
}

func workflowError(err error) error {
	switch {
	case errors.Is(err, ErrNoVehiclesSelected):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMeetupFull), errors.Is(err, ErrAlreadyJoined), errors.Is(err, ErrLimitBelowCount):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, ErrNotOrganizer):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

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
