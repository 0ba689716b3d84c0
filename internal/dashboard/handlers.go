package dashboard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlangar/langar/internal/assign"
	"github.com/openlangar/langar/internal/auth"
	"github.com/openlangar/langar/internal/catalog"
	"github.com/openlangar/langar/internal/meal"
	"github.com/openlangar/langar/internal/view"
)

// writeError maps service errors onto JSON responses. Not-found and
// validation failures keep their message; everything else is logged and
// returned as a generic 500 so internals don't leak.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, meal.ErrNotFound), errors.Is(err, assign.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type nameRequest struct {
	Name string `json:"name" binding:"required"`
}

func handleLogin(opts StartOpts) gin.HandlerFunc {
	type loginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := opts.Auth.Login(req.Email, req.Password)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				slog.Error("login failed", "error", err)
			}
			// Deliberately one message for every cause.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		maxAge := int(opts.Auth.TTL().Seconds())
		c.SetCookie(sessionCookie, token, maxAge, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// handleSession reports whether an admin session is currently active. The
// admin UI polls this instead of checking once so an expired session flips
// the surface back to signed-out.
func handleSession(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		active := err == nil && opts.Auth.Verify(token) == nil
		c.JSON(http.StatusOK, gin.H{"active": active})
	}
}

func handleListMeals(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			meals interface{}
			err   error
		)
		if c.Query("active") != "" {
			meals, err = meal.ListActive(opts.DB)
		} else {
			meals, err = meal.List(opts.DB)
		}
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"meals": meals})
	}
}

func handleActiveMeal(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := meal.Active(opts.DB)
		if err != nil {
			if errors.Is(err, meal.ErrNoActiveMeal) {
				c.JSON(http.StatusOK, gin.H{"mealId": ""})
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"mealId": id})
	}
}

func handleMealView(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, err := view.Build(opts.DB, c.Param("mealID"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

func handleCreateMeal(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		m, err := meal.Create(opts.DB, opts.Hub, req.Name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

func handleAddMenuItem(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		item, err := catalog.AddMenuItem(opts.DB, opts.Hub, req.Name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func handleAddDiningHall(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
			return
		}
		hall, err := catalog.AddDiningHall(opts.DB, opts.Hub, req.Name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, hall)
	}
}

func handleAssignMenu(opts StartOpts) gin.HandlerFunc {
	type menuRequest struct {
		Counts map[string]int `json:"counts" binding:"required"`
	}
	return func(c *gin.Context) {
		var req menuRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "counts are required"})
			return
		}
		if err := assign.AssignMenuItems(opts.DB, opts.Hub, c.Param("mealID"), req.Counts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func handleAssignPots(opts StartOpts) gin.HandlerFunc {
	type potsRequest struct {
		DiningHallID string         `json:"diningHallId" binding:"required"`
		Counts       map[string]int `json:"counts" binding:"required"`
	}
	return func(c *gin.Context) {
		var req potsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "diningHallId and counts are required"})
			return
		}
		if err := assign.AssignPots(opts.DB, opts.Hub, c.Param("mealID"), req.DiningHallID, req.Counts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func handleCompleteMeal(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := meal.Complete(opts.DB, opts.Hub, c.Param("mealID"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

func handleSetDelivered(opts StartOpts) gin.HandlerFunc {
	type deliveredRequest struct {
		Delivered *int `json:"delivered" binding:"required"`
	}
	return func(c *gin.Context) {
		var req deliveredRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delivered is required"})
			return
		}
		if err := assign.SetDelivered(opts.DB, opts.Hub, c.Param("id"), *req.Delivered); err != nil {
			if errors.Is(err, assign.ErrNotFound) {
				writeError(c, err)
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func handleIncrementDelivered(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		pa, err := assign.IncrementDelivered(opts.DB, opts.Hub, c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, pa)
	}
}

func handleSetActiveMeal(opts StartOpts) gin.HandlerFunc {
	type activeRequest struct {
		MealID string `json:"mealId" binding:"required"`
	}
	return func(c *gin.Context) {
		var req activeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mealId is required"})
			return
		}
		if err := meal.SetActive(opts.DB, opts.Hub, req.MealID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func handleClearActiveMeal(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := meal.ClearActive(opts.DB, opts.Hub); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
