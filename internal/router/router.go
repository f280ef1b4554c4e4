package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	userHandler *handler.UserHandler,
	taskHandler *handler.TaskHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
	}))

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/user/register", userHandler.Register)
	api.POST("/user/login", userHandler.Login)
	api.POST("/user/recover/:email", userHandler.RecoverPassword)

	// Secured routes (require a valid session token). The middleware
	// delegates verification to JWTService and stores *auth.Claims under
	// the "user" context key.
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateToken(token)
		},
	}))

	// User routes
	secured.PATCH("/user/change-password", userHandler.ChangePassword)

	// Task routes
	secured.POST("/tasks", taskHandler.Create)
	secured.GET("/tasks", taskHandler.List)
	secured.GET("/tasks/:id", taskHandler.Get)
	secured.PUT("/tasks/:id", taskHandler.Update)
	secured.DELETE("/tasks/:id", taskHandler.Delete)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
