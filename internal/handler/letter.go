package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuchankim/trainmail/internal/repository"
	"github.com/yuchankim/trainmail/internal/service"
)

// LetterHandler exposes letter authoring and listing for the authenticated
// account.
type LetterHandler struct {
	Mail    *service.MailService
	Letters repository.LetterRepo
}

func NewLetterHandler(mail *service.MailService, letters repository.LetterRepo) *LetterHandler {
	return &LetterHandler{Mail: mail, Letters: letters}
}

type createLetterReq struct {
	SenderName   string `json:"sender_name"`
	Relationship string `json:"relationship"`
	Title        string `json:"title"`
	Contents     string `json:"contents"`
	Password     string `json:"password"`
	IsPublic     bool   `json:"is_public"`
}

type letterPart struct {
	ID         uint64     `json:"id"`
	SenderName string     `json:"sender_name"`
	Title      string     `json:"title"`
	Posted     bool       `json:"posted"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Create stores a letter and, when the account's routing identifiers are
// already resolved, relays it to the roster service right away.  The letter
// is accepted either way; delivery state is visible on the listing.
func (h *LetterHandler) Create(c echo.Context) error {
	uid, ok := currentTraineeID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createLetterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.SenderName = strings.TrimSpace(req.SenderName)
	req.Title = strings.TrimSpace(req.Title)
	if req.SenderName == "" || req.Title == "" || strings.TrimSpace(req.Contents) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sender_name, title and contents required"})
	}

	// The relay can hit the upstream roster service, so give it more room
	// than a plain DB call.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	id, err := h.Mail.SendLetter(ctx, uid, repository.NewLetter{
		SenderName:   req.SenderName,
		Relationship: req.Relationship,
		Title:        req.Title,
		Contents:     req.Contents,
		Password:     req.Password,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "account not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create letter failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"letter_id": id})
}

// List returns every letter authored under the account, oldest first.
func (h *LetterHandler) List(c echo.Context) error {
	uid, ok := currentTraineeID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	letters, err := h.Letters.ListByTrainee(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list letters failed"})
	}
	out := make([]letterPart, 0, len(letters))
	for _, l := range letters {
		out = append(out, letterPart{
			ID:         l.ID,
			SenderName: l.SenderName,
			Title:      l.Title,
			Posted:     l.Posted,
			PostedAt:   l.PostedAt,
			CreatedAt:  l.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"letters": out})
}

// Get returns one letter with its full contents.  Only the owning account
// may read it.
func (h *LetterHandler) Get(c echo.Context) error {
	uid, ok := currentTraineeID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid letter id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Letters.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "letter not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load letter failed"})
	}
	if l.TraineeID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":           l.ID,
		"sender_name":  l.SenderName,
		"relationship": l.Relationship,
		"title":        l.Title,
		"contents":     l.Contents,
		"is_public":    l.IsPublic,
		"posted":       l.Posted,
		"posted_at":    l.PostedAt,
		"created_at":   l.CreatedAt,
	})
}
