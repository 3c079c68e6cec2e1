package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	_ "github.com/Astemirdum/lending-desk/desk/docs"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
	md "github.com/Astemirdum/lending-desk/pkg/middleware"
	"github.com/Astemirdum/lending-desk/pkg/validate"
)

const defaultMaxUpload = 10 << 20

// ImageResolver maps a public image name to a file on disk.
type ImageResolver interface {
	Path(name string) (string, error)
}

type Handler struct {
	svc       DeskService
	images    ImageResolver
	maxUpload int64
	log       *zap.Logger
}

func New(svc DeskService, images ImageResolver, maxUpload int64, log *zap.Logger) *Handler {
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &Handler{
		svc:       svc,
		images:    images,
		maxUpload: maxUpload,
		log:       log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(md.CORSConfig()))
	e.Validator = validate.NewCustomValidator()

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	authenticated := []echo.MiddlewareFunc{h.Authenticate}
	admin := []echo.MiddlewareFunc{h.Authenticate, h.RequireRole(model.RoleAdmin)}

	api.POST("/signup", h.SignUp)
	api.POST("/login", h.Login)
	api.GET("/uploads/images/:name", h.GetImage)

	api.GET("/api/books", h.ListBooks)
	api.GET("/api/books/:id", h.GetBook)
	api.POST("/api/books", h.CreateBook, admin...)
	api.GET("/api/books/by-barcode/:code", h.GetBookByBarcode, admin...)

	api.GET("/api/me", h.Me, authenticated...)
	api.GET("/api/readings/me", h.MyReadings, authenticated...)
	api.GET("/api/readings/active", h.ActiveReadings, admin...)
	api.POST("/api/check-in", h.CheckIn, admin...)
	api.POST("/api/check-out", h.CheckOut, admin...)

	api.POST("/api/reviews", h.PostReview, authenticated...)
	api.GET("/api/reviews", h.ListReviews, admin...)
	api.POST("/api/reviews/:id/like", h.ToggleLike, admin...)

	return e
}

// Health godoc
// @Summary Liveness check
// @Tags manage
// @Success 200 {string} string "OK"
// @Router /manage/health [get]
func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}
