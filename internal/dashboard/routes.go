package dashboard

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlangar/langar/internal/auth"
	"github.com/openlangar/langar/internal/meal"
	"github.com/openlangar/langar/internal/view"
)

// sessionCookie is the name of the admin session cookie.
const sessionCookie = "langar_session"

// registerRoutes sets up all dashboard routes on the gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	// Embedded static assets (served from assets/ subdir of the embed.FS).
	staticFS, _ := fs.Sub(assetsFS, "assets")
	router.StaticFS("/static", http.FS(staticFS))

	// Public pages.
	router.GET("/", handleIndex(opts))

	// Public JSON reads.
	router.GET("/api/meals", handleListMeals(opts))
	router.GET("/api/meals/active", handleActiveMeal(opts))
	router.GET("/api/view/:mealID", handleMealView(opts))

	// SSE stream.
	router.GET("/api/events", handleSSE(opts))

	// Session endpoints.
	router.POST("/api/login", handleLogin(opts))
	router.POST("/api/logout", handleLogout())
	router.GET("/api/session", handleSession(opts))

	// Mutations, gated behind an active admin session.
	admin := router.Group("/api/admin", requireSession(opts.Auth))
	admin.POST("/meals", handleCreateMeal(opts))
	admin.POST("/menu-items", handleAddMenuItem(opts))
	admin.POST("/dining-halls", handleAddDiningHall(opts))
	admin.POST("/meals/:mealID/menu", handleAssignMenu(opts))
	admin.POST("/meals/:mealID/pots", handleAssignPots(opts))
	admin.POST("/meals/:mealID/complete", handleCompleteMeal(opts))
	admin.POST("/assignments/:id/delivered", handleSetDelivered(opts))
	admin.POST("/assignments/:id/increment", handleIncrementDelivered(opts))
	admin.PUT("/active-meal", handleSetActiveMeal(opts))
	admin.DELETE("/active-meal", handleClearActiveMeal(opts))
}

// requireSession rejects requests without a valid admin session cookie.
func requireSession(mgr *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil || mgr.Verify(token) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func handleIndex(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		mealID := c.Query("meal")
		pinned := mealID != ""
		if mealID == "" {
			id, err := meal.Active(opts.DB)
			if err != nil && !errors.Is(err, meal.ErrNoActiveMeal) {
				c.HTML(http.StatusInternalServerError, "layout.html", gin.H{"error": "could not load the active meal"})
				return
			}
			mealID = id
		}

		data := gin.H{"pinned": pinned}
		if mealID != "" {
			v, err := view.Build(opts.DB, mealID)
			if err != nil {
				if errors.Is(err, meal.ErrNotFound) {
					c.HTML(http.StatusNotFound, "layout.html", gin.H{"error": "meal not found"})
					return
				}
				c.HTML(http.StatusInternalServerError, "layout.html", gin.H{"error": "could not load the dashboard"})
				return
			}
			data["view"] = v
		}
		c.HTML(http.StatusOK, "layout.html", data)
	}
}
