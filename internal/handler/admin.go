package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuchankim/trainmail/internal/repository"
	"github.com/yuchankim/trainmail/internal/service"
)

// AdminHandler exposes operational endpoints: manual drain triggers and
// queue depth inspection.  Routes using it must be wrapped with
// RequireRole("ADMIN").
type AdminHandler struct {
	Retry        *service.RetryService
	LetterQueue  repository.LetterQueue
	TraineeQueue repository.TraineeQueue
}

func NewAdminHandler(retry *service.RetryService, lq repository.LetterQueue, tq repository.TraineeQueue) *AdminHandler {
	return &AdminHandler{Retry: retry, LetterQueue: lq, TraineeQueue: tq}
}

// DrainLetters runs one letter-retry pass outside the scheduled cadence.
func (h *AdminHandler) DrainLetters(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	if err := h.Retry.DrainLetters(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// DrainProfiles runs one profile-retry pass outside the scheduled cadence.
func (h *AdminHandler) DrainProfiles(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Minute)
	defer cancel()

	if err := h.Retry.DrainProfiles(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

// Queues reports the current depth of both retry queues.
func (h *AdminHandler) Queues(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	letters, err := h.LetterQueue.Size(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue lookup failed"})
	}
	trainees, err := h.TraineeQueue.Size(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"letter_queue":  letters,
		"trainee_queue": trainees,
	})
}
