package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/helpdesk-service/internal/service"
)

type CrewHandler struct {
	solver service.Solver
}

func NewCrewHandler(solver service.Solver) *CrewHandler {
	return &CrewHandler{solver: solver}
}

type askResponse struct {
	Result string `json:"result"`
}

// Ask отвечает на вопрос по документации выбранной системы.
func (h *CrewHandler) Ask(c *gin.Context) {
	system := strings.TrimSpace(c.Query("system"))
	prompt := strings.TrimSpace(c.Query("prompt"))
	if system == "" || prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both system and prompt are required"})
		return
	}
	if !h.solver.HasSystem(system) {
		respondError(c, service.UnknownSystemError(system, h.solver.Systems()))
		return
	}
	out, err := h.solver.Ask(c.Request.Context(), system, prompt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, askResponse{Result: out})
}
