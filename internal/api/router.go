package api

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"net/http"
	"storefront-service/internal/apperror"
	"storefront-service/internal/service"
	"time"
)

// Options tunes the middleware stack. A zero RatePerSecond disables the order rate limit.
type Options struct {
	RequestTimeout time.Duration
	RatePerSecond  float64
	RateBurst      int
}

// NewServer builds the echo instance with every route and middleware registered.
func NewServer(svc Services, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Pre(cors())
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))
	if opts.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{Timeout: opts.RequestTimeout}))
	}

	orderHandler := NewOrderHandler(svc.Orders)
	productHandler := NewProductHandler(svc.Catalog)
	customerHandler := NewCustomerHandler(svc.Customers)
	adminHandler := NewAdminHandler(svc)

	var createOrderMiddleware []echo.MiddlewareFunc
	if opts.RatePerSecond > 0 {
		createOrderMiddleware = append(createOrderMiddleware, orderRateLimiter(opts.RatePerSecond, opts.RateBurst))
	}

	e.GET("/api/products", productHandler.GetProducts)
	e.POST("/api/orders", orderHandler.CreateOrder, createOrderMiddleware...)
	e.GET("/api/orders", orderHandler.GetOrders)
	e.PUT("/api/orders", orderHandler.UpdateOrderStatus)
	e.POST("/api/customers", customerHandler.PostCustomers)

	e.POST("/api/admin/login", adminHandler.Login)

	admin := e.Group("/api/admin", adminGuard(svc.Auth.Secret()))
	admin.GET("/dashboard", adminHandler.Dashboard)
	admin.GET("/products", adminHandler.GetProducts)
	admin.POST("/products", adminHandler.CreateProduct)
	admin.PUT("/products", adminHandler.UpdateProduct)
	admin.DELETE("/products", adminHandler.DeleteProduct)
	admin.GET("/orders", adminHandler.GetOrders)
	admin.POST("/orders", adminHandler.CreateOrder)
	admin.PUT("/orders", adminHandler.UpdateOrder)
	admin.DELETE("/orders", adminHandler.DeleteOrder)
	admin.GET("/customers", adminHandler.GetCustomers)
	admin.POST("/customers", adminHandler.CreateCustomer)
	admin.PUT("/customers", adminHandler.UpdateCustomer)
	admin.DELETE("/customers", adminHandler.DeleteCustomer)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "storefront-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	return e
}

// cors answers every OPTIONS request with 200 and an empty body.
func cors() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST, PUT, DELETE, OPTIONS")
			h.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Authorization, "+idempotencyHeader)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Info()
			if v.Error != nil {
				event = logger.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

func orderRateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	limited := func(c echo.Context) error {
		return c.JSON(http.StatusTooManyRequests, errorBody{Error: true, Message: "rate limit exceeded"})
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(perSecond),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return limited(c)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return limited(c)
		},
	})
}

func adminGuard(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: secret,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(service.AdminClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperror.Wrap(apperror.KindUnauthorized, "api.AdminGuard", err, "authentication required")
		},
	})
}
