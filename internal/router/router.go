package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/psds-microservice/helpdesk-service/api"
	"github.com/psds-microservice/helpdesk-service/internal/handler"
	"github.com/psds-microservice/helpdesk-service/internal/middleware"
	"github.com/psds-microservice/helpdesk-service/internal/service"
)

const (
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathSwagger = "/swagger"
	PathAPI     = "/api"
)

type Deps struct {
	Users     service.UserServicer
	Tickets   service.TicketServicer
	Solutions service.SolutionServicer
	Solver    service.Solver
	Health    *handler.HealthHandler
	Logger    *slog.Logger
}

func New(d Deps) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(d.Logger))
	if d.Health != nil {
		r.GET(PathHealth, d.Health.Health)
		r.GET(PathReady, d.Health.Ready)
	}
	r.GET(PathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, PathSwagger+"/") })
	r.GET(PathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = PathSwagger + "/index.html"
			c.Request.RequestURI = PathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL(PathSwagger+"/openapi.json"))(c)
	})

	authH := handler.NewAuthHandler(d.Users)
	ticketH := handler.NewTicketHandler(d.Tickets)
	solutionH := handler.NewSolutionHandler(d.Solutions)
	crewH := handler.NewCrewHandler(d.Solver)
	requireAuth := middleware.RequireAuth(d.Users)

	apiGroup := r.Group(PathAPI)
	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", requireAuth, authH.Logout)
		authGroup.GET("/me", requireAuth, authH.Me)
	}
	tickets := apiGroup.Group("/tickets")
	{
		tickets.POST("/tickets", requireAuth, ticketH.Create)
		tickets.GET("/tickets", ticketH.List)
		tickets.GET("/tickets/:id", ticketH.Get)
		tickets.PUT("/tickets/:id", requireAuth, ticketH.Update)
		tickets.DELETE("/tickets/:id", requireAuth, ticketH.Delete)
		tickets.POST("/tickets/:id/ai-solution", solutionH.Generate)
		tickets.POST("/ai-solutions/:id/like", requireAuth, solutionH.Like)
		tickets.POST("/ai-solutions/:id/dislike", requireAuth, solutionH.Dislike)
	}
	apiGroup.POST("/crewai/ask", crewH.Ask)

	return r
}
