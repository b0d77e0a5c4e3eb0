package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/middleware"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

type TicketHandler struct {
	svc service.TicketServicer
}

func NewTicketHandler(svc service.TicketServicer) *TicketHandler {
	return &TicketHandler{svc: svc}
}

type createTicketRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority"`
}

// updateTicketRequest: nil-поля не меняются.
type updateTicketRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description" binding:"omitempty,min=1"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !requireText(c, map[string]*string{"title": &req.Title, "description": &req.Description}) {
		return
	}
	priority, err := service.ParsePriority(req.Priority)
	if err != nil {
		respondError(c, err)
		return
	}
	u := middleware.CurrentUser(c)
	ticket := &model.Ticket{
		Title:       req.Title,
		Description: req.Description,
		Priority:    priority,
		Status:      model.TicketStatusOpen,
		AssignedTo:  &u.ID,
	}
	if err := h.svc.Create(c.Request.Context(), ticket); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) List(c *gin.Context) {
	filter := map[string]interface{}{}
	if s := c.Query("status"); s != "" {
		st, err := service.ParseStatus(s)
		if err != nil {
			respondError(c, err)
			return
		}
		filter["status = ?"] = st
	}
	if p := c.Query("priority"); p != "" {
		pr, err := service.ParsePriority(p)
		if err != nil {
			respondError(c, err)
			return
		}
		filter["priority = ?"] = pr
	}
	if a := c.Query("assigned_to"); a != "" {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assigned_to"})
			return
		}
		filter["assigned_to = ?"] = id
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 0 || limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := h.svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	c.JSON(http.StatusOK, items)
}

func (h *TicketHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !requireText(c, map[string]*string{"title": req.Title, "description": req.Description}) {
		return
	}
	changes := map[string]interface{}{}
	if req.Title != nil {
		changes["title"] = *req.Title
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Priority != nil {
		// пустая строка в PUT не означает MEDIUM
		if strings.TrimSpace(*req.Priority) == "" {
			respondError(c, errs.ErrInvalidPriority)
			return
		}
		p, err := service.ParsePriority(*req.Priority)
		if err != nil {
			respondError(c, err)
			return
		}
		changes["priority"] = p
	}
	if req.Status != nil {
		st, err := service.ParseStatus(*req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		changes["status"] = st
	}
	t, err := h.svc.Update(c.Request.Context(), middleware.CurrentUser(c), id, changes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
