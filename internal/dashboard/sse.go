package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openlangar/langar/internal/feed"
	"github.com/openlangar/langar/internal/meal"
	"github.com/openlangar/langar/internal/view"
)

// handleSSE streams dashboard updates to the browser. Each connection
// follows one meal: the one pinned with ?meal=, or whichever meal is
// active. Unpinned connections hop to the new meal when the active
// pointer moves.
func handleSSE(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		pinnedID := c.Query("meal")
		mealID := pinnedID
		if mealID == "" {
			id, err := meal.Active(opts.DB)
			if err != nil && !errors.Is(err, meal.ErrNoActiveMeal) {
				return
			}
			mealID = id
		}

		activeCh, cancelActive := opts.Hub.Subscribe(feed.TopicActive)
		defer cancelActive()
		mealsCh, cancelMeals := opts.Hub.Subscribe(feed.TopicMeals)
		defer cancelMeals()

		var (
			mealCh     <-chan feed.Event
			cancelMeal func()
		)
		follow := func(id string) {
			if cancelMeal != nil {
				cancelMeal()
				cancelMeal = nil
				mealCh = nil
			}
			mealID = id
			if id != "" {
				mealCh, cancelMeal = opts.Hub.Subscribe(feed.MealTopic(id))
			}
		}
		follow(mealID)
		defer func() {
			if cancelMeal != nil {
				cancelMeal()
			}
		}()

		sendView := func() {
			if mealID == "" {
				writeSSE(c.Writer, "view", map[string]any{"mealId": ""})
				c.Writer.Flush()
				return
			}
			v, err := view.Build(opts.DB, mealID)
			if err != nil {
				slog.Error("sse: build view", "meal", mealID, "error", err)
				return
			}
			writeSSE(c.Writer, "view", v)
			c.Writer.Flush()
		}
		sendView()

		ctx := c.Request.Context()
		heartbeat := time.NewTicker(15 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case ev := <-activeCh:
				if pinnedID != "" {
					continue
				}
				if ev.Kind == feed.KindActiveChanged {
					follow(ev.MealID)
					sendView()
				}
			case ev := <-mealsCh:
				// Catalog and meal-list changes only matter to the current
				// view when it is the affected meal.
				if ev.MealID == "" || ev.MealID == mealID {
					sendView()
				}
			case <-mealCh:
				sendView()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
