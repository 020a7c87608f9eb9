package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/sunwatch/internal/app"
	"github.com/i474232898/sunwatch/internal/exposure"
	"github.com/i474232898/sunwatch/internal/store"
	"github.com/i474232898/sunwatch/internal/weather"
)

var validate = validator.New()

// Display is the session the UI drives.
type Display interface {
	View() app.View
	ToggleReminder() (app.View, error)
	ActivateAsync()
}

// SnapshotSource exposes the published weather state.
type SnapshotSource interface {
	Snapshot() weather.Snapshot
}

// SampleLister is the read side of the exposure sample store.
type SampleLister interface {
	ListSamples(ctx context.Context, from, to time.Time) ([]exposure.Sample, error)
}

// Deps are the handlers' collaborators.
type Deps struct {
	Display Display
	Weather SnapshotSource
	Samples SampleLister
}

// RegisterRoutes wires the HTTP handlers into the Fiber router.
func RegisterRoutes(r fiber.Router, deps Deps) {
	v1 := r.Group("/api/v1")

	v1.Get("/view", func(c *fiber.Ctx) error {
		return c.JSON(deps.Display.View())
	})

	v1.Post("/activate", func(c *fiber.Ctx) error {
		deps.Display.ActivateAsync()
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
	})

	v1.Post("/reminder/toggle", func(c *fiber.Ctx) error {
		view, err := deps.Display.ToggleReminder()
		if err != nil {
			if errors.Is(err, app.ErrLowRisk) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to toggle reminder")
		}
		return c.JSON(view)
	})

	v1.Get("/uv/hourly", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap := deps.Weather.Snapshot()
		hourly := snap.Hourly
		if q.set {
			hourly = snap.HourlyBetween(q.From, q.To)
		}

		return c.JSON(fiber.Map{
			"hasData": snap.HasData,
			"hourly":  hourly,
		})
	})

	v1.Get("/exposure/samples", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if !q.set {
			q.From, q.To = time.Unix(0, 0).UTC(), time.Now().UTC()
		}

		samples, err := deps.Samples.ListSamples(c.UserContext(), q.From, q.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no exposure samples for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list exposure samples")
		}

		return c.JSON(fiber.Map{
			"from":    q.From,
			"to":      q.To,
			"samples": samples,
		})
	})
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// rangeQuery holds the optional from/to query parameters. Both or neither
// must be given.
type rangeQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
	set  bool
}

func (q *rangeQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" && toStr == "" {
		return nil
	}
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters must be given together")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	q.From = from
	q.To = to
	q.set = true
	return validate.Struct(q)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
