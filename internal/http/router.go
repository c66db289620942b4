package http

import (
	"log/slog"

	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/cache"
	"github.com/geocoder89/todohub/internal/config"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/http/handlers"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "todohub"

// Deps is everything the router wires together. Prom, Cache and Readiness are optional.
type Deps struct {
	Log           *slog.Logger
	Config        config.Config
	Prom          *observability.Prom
	Authenticator *auth.Authenticator
	Resolver      middlewares.IdentityResolver
	Guard         *auth.Guard
	Users         handlers.UsersStore
	Todos         handlers.TodosStore
	Cache         cache.Store
	Readiness     map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	if d.Config.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware("/metrics"))
	}
	r.Use(middlewares.SecurityHeaders(d.Config.Env))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	r.Use(middlewares.RequireJSON("/auth/token"))

	// health
	h := handlers.NewHealthHandler(d.Readiness)
	r.GET("/healthz", h.Healthz)
	r.GET("/health_check", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Prom != nil {
		r.GET("/metrics", d.Prom.Handler())
	}

	authMW := middlewares.NewAuthMiddleware(d.Resolver)

	// auth
	authHandler := handlers.NewAuthHandler(d.Authenticator, d.Log)
	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/token", authHandler.Token)

	// users
	usersHandler := handlers.NewUsersHandler(d.Users, d.Authenticator, d.Guard, d.Cache, d.Log)
	users := r.Group("/users", authMW.RequireAuth())
	{
		users.GET("/me", usersHandler.Me)
		users.GET("", authMW.RequireRole(user.RoleAdmin), usersHandler.ListUsers)
		users.POST("", authMW.RequireRole(user.RoleAdmin), usersHandler.CreateUser)
		users.GET("/:id", usersHandler.GetUser)
		users.PUT("/:id", usersHandler.UpdateUser)
		users.DELETE("/:id", usersHandler.DeleteUser)
	}

	// todos
	todosHandler := handlers.NewTodosHandler(d.Todos, d.Guard, d.Cache, d.Log)
	todos := r.Group("/todos", authMW.RequireAuth())
	{
		todos.GET("", todosHandler.ListTodos)
		todos.POST("", todosHandler.CreateTodo)
		todos.GET("/:id", todosHandler.GetTodo)
		todos.PUT("/:id", todosHandler.UpdateTodo)
		todos.DELETE("/:id", todosHandler.DeleteTodo)
	}

	return r
}
