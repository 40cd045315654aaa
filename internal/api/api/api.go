package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"skillsphere/cmd/middleware"
	"skillsphere/internal/model"
	"skillsphere/internal/service"
	"skillsphere/pkg/auth"
)

type Routers struct {
	Service service.Service
	Tokens  *auth.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/auth/register", r.Service.RegisterUser)
	apiGroup.POST("/auth/login", r.Service.Login)

	users := apiGroup.Group("/users")
	users.Use(middleware.Auth(r.Tokens))
	{
		users.GET("/me", r.Service.GetMe)
		users.GET("", middleware.RequireRoles(model.RoleAdmin), r.Service.GetAllUsers)
		users.PUT("/:id", r.Service.UpdateUser)
		users.DELETE("/:id", middleware.RequireRoles(model.RoleAdmin), r.Service.DeleteUser)
	}

	events := apiGroup.Group("/events")
	{
		events.GET("", middleware.OptionalAuth(r.Tokens), r.Service.GetAllEvents)
		events.GET("/:id", middleware.OptionalAuth(r.Tokens), r.Service.GetEvent)

		events.POST("", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.CreateEvent)
		events.PUT("/:id", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.UpdateEvent)
		events.DELETE("/:id", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.DeleteEvent)

		events.POST("/:id/register", middleware.Auth(r.Tokens), r.Service.RegisterForEvent)
		events.DELETE("/:id/register", middleware.Auth(r.Tokens), r.Service.CancelRegistration)
		events.GET("/:id/registrations", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.GetEventRegistrations)
		events.PUT("/:id/registrations/:registrationId", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.DecideRegistration)
		events.PUT("/:id/attendance/:registrationId", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.MarkAttendance)
	}

	orgs := apiGroup.Group("/organizations")
	{
		orgs.GET("", r.Service.GetAllOrganizations)
		orgs.GET("/:id", middleware.OptionalAuth(r.Tokens), r.Service.GetOrganization)

		orgs.POST("", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.CreateOrganization)
		orgs.PUT("/:id", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.UpdateOrganization)
		orgs.DELETE("/:id", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.DeleteOrganization)

		orgs.POST("/:id/join", middleware.Auth(r.Tokens), r.Service.JoinOrganization)
		orgs.PUT("/:id/members/:userId", middleware.Auth(r.Tokens),
			middleware.RequireRoles(model.RoleOrganizer, model.RoleAdmin), r.Service.DecideJoinRequest)
		orgs.DELETE("/:id/members/:userId", middleware.Auth(r.Tokens), r.Service.RemoveMember)
	}

	return app
}
