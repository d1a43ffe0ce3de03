package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuchankim/trainmail/internal/repository"
	"github.com/yuchankim/trainmail/internal/service"
	"github.com/yuchankim/trainmail/internal/window"
)

// ProfileHandler exposes the authenticated account's profile.
type ProfileHandler struct {
	Accounts *service.TraineeService
	Trainees repository.TraineeRepo
	Phases   window.PhaseProvider
}

func NewProfileHandler(accounts *service.TraineeService, trainees repository.TraineeRepo, phases window.PhaseProvider) *ProfileHandler {
	return &ProfileHandler{Accounts: accounts, Trainees: trainees, Phases: phases}
}

type editProfileReq struct {
	Name    *string `json:"name"`
	Birth   *string `json:"birth"`
	Cohort  *int    `json:"cohort"`
	Message *string `json:"message"`
}

type editPasswordReq struct {
	Password string `json:"password"`
}

// Me returns the account's profile together with the cohort's current
// service phase.
func (h *ProfileHandler) Me(c echo.Context) error {
	uid, ok := currentTraineeID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Trainees.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
	}

	phase := "unknown"
	if p, err := h.Phases.Phase(t.Cohort); err == nil {
		phase = p.String()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":        t.ID,
		"username":  t.Username,
		"name":      t.Name,
		"birth":     t.Birth,
		"cohort":    t.Cohort,
		"message":   t.Message,
		"connected": t.Connected,
		"phase":     phase,
	})
}

// Edit applies a partial profile update.  Changing name, birth or cohort
// discards previously resolved routing identifiers and, while the cohort is
// in basic training, schedules a fresh roster lookup.
func (h *ProfileHandler) Edit(c echo.Context) error {
	uid, ok := currentTraineeID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req editProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == nil && req.Birth == nil && req.Cohort == nil && req.Message == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be empty"})
	}
	if req.Birth != nil && !birthRe.MatchString(*req.Birth) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "birth must be YYYYMMDD"})
	}
	if req.Cohort != nil && *req.Cohort <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cohort"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	err := h.Accounts.EditProfile(ctx, uid, repository.ProfileEdit{
		Name:    req.Name,
		Birth:   req.Birth,
		Cohort:  req.Cohort,
		Message: req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		case errors.Is(err, window.ErrUnknownCohort):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown cohort"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// EditPassword replaces the account password.
func (h *ProfileHandler) EditPassword(c echo.Context) error {
	uid, ok := currentTraineeID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req editPasswordReq
	if err := c.Bind(&req); err != nil || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Accounts.EditPassword(ctx, uid, req.Password); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
