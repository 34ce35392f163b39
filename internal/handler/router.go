package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Baaaki/procurehub/internal/middleware"
	"github.com/Baaaki/procurehub/internal/service"
	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries everything NewRouter wires together. RateLimiter and
// ClientDistDir are optional. RequestTimeout bounds the store-backed routes;
// scraper routes get ScraperTimeout instead.
type RouterConfig struct {
	AuthService    *service.AuthService
	ShopService    *service.ShopService
	ProductService *service.ProductService
	Scraper        Scraper
	Ping           PingFunc
	RateLimiter    *middleware.RateLimiter

	IsProduction   bool
	AllowedOrigins []string
	RequestTimeout time.Duration
	ScraperTimeout time.Duration
	UploadDir      string
	ClientDistDir  string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger.Log),
		middleware.Recovery(),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.SecurityHeaders(cfg.IsProduction),
		middleware.ErrorHandler(cfg.IsProduction),
	)

	health := NewHealthHandler(cfg.Ping)
	router.GET("/health", health.Health)

	if cfg.UploadDir != "" {
		router.Static("/uploads", cfg.UploadDir)
	}

	api := router.Group("/api")
	storeTimeout := middleware.RequestTimeout(cfg.RequestTimeout)

	authHandler := NewAuthHandler(cfg.AuthService)
	auth := api.Group("/auth", storeTimeout)
	if cfg.RateLimiter != nil {
		auth.Use(cfg.RateLimiter.Middleware())
	}
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/signin", authHandler.Signin)
		auth.POST("/google", authHandler.Google)
		auth.POST("/signout", authHandler.Signout)
		auth.GET("/me", middleware.RequireSession(cfg.AuthService), authHandler.Me)
	}

	shopHandler := NewShopHandler(cfg.ShopService)
	shop := api.Group("/shop", storeTimeout)
	{
		shop.POST("/create-shop", shopHandler.CreateShop)
		shop.GET("/get-shop-info/:userId", shopHandler.GetShopInfo)
	}

	productHandler := NewProductHandler(cfg.ProductService)
	product := api.Group("/product", storeTimeout)
	{
		product.POST("/create-product", productHandler.CreateProduct)
		product.PUT("/update-product/:id", productHandler.UpdateProduct)
		product.GET("/get-product/:productId", productHandler.GetProduct)
		product.GET("/shop-products/:shopId", productHandler.GetShopProducts)
		product.DELETE("/delete-product/:id", productHandler.DeleteProduct)
	}

	if cfg.Scraper != nil {
		scraperHandler := NewScraperHandler(cfg.Scraper)
		scrape := api.Group("/scrapedata", middleware.RequestTimeout(cfg.ScraperTimeout))
		{
			scrape.POST("/make-model/:category", scraperHandler.MakeModel)
			scrape.POST("/specs/:category", scraperHandler.Specs)
			scrape.POST("/service-providers/:serviceType", scraperHandler.ServiceProviders)
		}
	}

	router.NoRoute(spaFallback(cfg.ClientDistDir))

	return router
}

// spaFallback serves the built client for non-API paths, falling back to
// index.html for client-side routes.
func spaFallback(distDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if distDir == "" || strings.HasPrefix(path, "/api/") || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, middleware.ErrorBody(http.StatusNotFound, "Not Found"))
			return
		}

		file := filepath.Join(distDir, filepath.Clean("/"+path))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(distDir, "index.html"))
	}
}
