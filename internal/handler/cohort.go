package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/yuchankim/trainmail/internal/window"
)

// CohortHandler answers cohort lookups: which cohort an enlistment date maps
// to, and where a cohort currently sits in its service timeline.  These are
// public endpoints used by the registration form.
type CohortHandler struct {
	Table  *window.Table
	Phases window.PhaseProvider
	RDB    *redis.Client // optional; recommendations are cached per date
}

func NewCohortHandler(table *window.Table, phases window.PhaseProvider, rdb *redis.Client) *CohortHandler {
	return &CohortHandler{Table: table, Phases: phases, RDB: rdb}
}

// Recommend maps an enlistment date to the cohort most likely to contain it.
// The mapping only changes when the cohort table does, so results are cached
// in Redis for a day.  A missing Redis instance degrades to computing every
// time.
func (h *CohortHandler) Recommend(c echo.Context) error {
	date := time.Now()
	if q := c.QueryParam("date"); q != "" {
		d, err := time.Parse("2006-01-02", q)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		date = d
	}
	key := "trainmail:cohort:recommend:" + date.Format("2006-01-02")

	if h.RDB != nil {
		if v, err := h.RDB.Get(c.Request().Context(), key).Result(); err == nil {
			if n, err := strconv.Atoi(v); err == nil {
				return c.JSON(http.StatusOK, echo.Map{"cohort": n, "date": date.Format("2006-01-02")})
			}
		}
	}

	cohort := h.Table.Recommend(date)
	if h.RDB != nil {
		_ = h.RDB.Set(c.Request().Context(), key, strconv.Itoa(cohort), 24*time.Hour).Err()
	}
	return c.JSON(http.StatusOK, echo.Map{"cohort": cohort, "date": date.Format("2006-01-02")})
}

// Phase reports a cohort's current phase and the timeline it was derived
// from.
func (h *CohortHandler) Phase(c echo.Context) error {
	cohort, err := strconv.Atoi(c.Param("no"))
	if err != nil || cohort <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cohort"})
	}

	dates, err := h.Table.Dates(cohort)
	if err != nil {
		if errors.Is(err, window.ErrUnknownCohort) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown cohort"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	phase, err := h.Phases.Phase(cohort)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	b := window.ComputeBreakpoints(dates)
	return c.JSON(http.StatusOK, echo.Map{
		"cohort":     cohort,
		"phase":      phase.String(),
		"enter":      dates.Enter.Format("2006-01-02"),
		"discharge":  dates.Discharge.Format("2006-01-02"),
		"mail_start": b.MailStart,
		"mail_end":   b.MailEnd,
		"completion": b.Completion,
	})
}
