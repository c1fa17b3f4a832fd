package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/matheusmosca/bookstore-backoffice/internal/usecase"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators the router dispatches to
type Dependencies struct {
	Auth         *usecase.AuthUseCase
	Genres       *usecase.GenreUseCase
	Books        *usecase.BookUseCase
	Transactions *usecase.TransactionUseCase
	Store        pinger

	ServiceName string
	Version     string
	// Development exposes error causes in responses.
	Development bool
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(deps.ServiceName))
	r.Use(requestLogger())

	errs := errorResponder{detail: deps.Development}
	requireAuth := authenticate(deps.Auth, errs)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    true,
			"message":   "Bookstore back-office API is running!",
			"version":   deps.Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/health", func(c *gin.Context) {
		if err := deps.Store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	authHandler := NewAuthHandler(deps.Auth, errs)
	authGroup := r.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)
	authGroup.POST("/logout", requireAuth, authHandler.Logout)

	genreHandler := NewGenreHandler(deps.Genres, errs)
	genres := r.Group("/genre")
	genres.POST("", requireAuth, genreHandler.Create)
	genres.GET("", genreHandler.List)
	genres.GET("/:genre_id", genreHandler.Get)
	genres.PATCH("/:genre_id", requireAuth, genreHandler.Update)
	genres.DELETE("/:genre_id", requireAuth, genreHandler.Delete)

	bookHandler := NewBookHandler(deps.Books, errs)
	books := r.Group("/books")
	books.POST("", requireAuth, bookHandler.Create)
	books.GET("", bookHandler.List)
	books.GET("/genre/:genre_id", bookHandler.ListByGenre)
	books.GET("/:book_id", bookHandler.Get)
	books.PATCH("/:book_id", requireAuth, bookHandler.Update)
	books.DELETE("/:book_id", requireAuth, bookHandler.Delete)

	transactionHandler := NewTransactionHandler(deps.Transactions, errs)
	transactions := r.Group("/transactions")
	transactions.POST("", requireAuth, transactionHandler.Create)
	transactions.GET("", transactionHandler.List)
	transactions.GET("/statistics/all", transactionHandler.Statistics)
	transactions.GET("/:transaction_id", transactionHandler.Get)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  false,
			"message": "Endpoint not found",
			"path":    c.Request.URL.Path,
			"method":  c.Request.Method,
		})
	})

	return r
}
