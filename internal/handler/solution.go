package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/helpdesk-service/internal/middleware"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

type SolutionHandler struct {
	svc service.SolutionServicer
}

func NewSolutionHandler(svc service.SolutionServicer) *SolutionHandler {
	return &SolutionHandler{svc: svc}
}

type generateRequest struct {
	System string `json:"system"`
}

type ratingResponse struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// Generate: system из query (?system=) или из JSON-тела, по умолчанию system1.
func (h *SolutionHandler) Generate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	system := strings.TrimSpace(c.Query("system"))
	if system == "" && c.Request.ContentLength != 0 {
		var req generateRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondBindError(c, err)
			return
		}
		system = strings.TrimSpace(req.System)
	}
	sol, err := h.svc.Generate(c.Request.Context(), id, system)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sol)
}

func (h *SolutionHandler) Like(c *gin.Context) {
	h.rate(c, h.svc.Like)
}

func (h *SolutionHandler) Dislike(c *gin.Context) {
	h.rate(c, h.svc.Dislike)
}

func (h *SolutionHandler) rate(c *gin.Context, toggle func(context.Context, *model.User, uint64) (*model.AISolution, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	sol, err := toggle(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ratingResponse{Likes: sol.Likes, Dislikes: sol.Dislikes})
}
