package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/taskbridge/backend/api/handler"
	"github.com/taskbridge/backend/domain"
	"github.com/taskbridge/backend/internal/realtime"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Events *apiHandler.EventsHandler
	Health *apiHandler.HealthHandler
	Socket *realtime.WebSocketServer
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New builds the route table. Task mutations are role-gated inside the
// state machine, not here; only surfaces without a usecase gate carry the
// role middleware.
func New(handlers Handlers, auth Middleware, requireRole func(string) Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)

	// Protected routes
	r.GET("/api/v1/users/employees", auth(handlers.Auth.ListEmployees))

	r.GET("/api/v1/tasks", auth(handlers.Task.ListTasks))
	r.POST("/api/v1/tasks", auth(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/user/{userId}", auth(handlers.Task.ListTasksByCreator))
	r.GET("/api/v1/tasks/{id}", auth(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", auth(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", auth(handlers.Task.DeleteTask))
	r.PATCH("/api/v1/tasks/{id}/status", auth(handlers.Task.UpdateStatus))
	r.PUT("/api/v1/tasks/{id}/assign", auth(handlers.Task.AssignTask))

	r.GET("/api/v1/events", auth(requireRole(string(domain.RoleManager))(handlers.Events.Recent)))

	// Real-time transport
	r.GET("/ws", auth(handlers.Socket.Handle))

	return r
}
