package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/openlangar/langar/internal/feed"
	"github.com/openlangar/langar/internal/meal"
	"github.com/openlangar/langar/internal/view"
)

// Reporter watches the feed hub and posts notable kitchen events: meal
// completions, fully-delivered meals, and a cron-scheduled daily digest of
// the active meal.
type Reporter struct {
	db         *gorm.DB
	hub        *feed.Hub
	notifier   Notifier
	digestExpr string

	// fullyDelivered remembers which meals have already been announced so
	// repeated delivery events don't repost.
	fullyDelivered map[string]bool
}

// NewReporter creates a Reporter. digestExpr is a 5-field cron expression;
// empty disables the digest.
func NewReporter(db *gorm.DB, hub *feed.Hub, n Notifier, digestExpr string) *Reporter {
	return &Reporter{
		db:             db,
		hub:            hub,
		notifier:       n,
		digestExpr:     digestExpr,
		fullyDelivered: make(map[string]bool),
	}
}

// Run consumes feed events until ctx is cancelled. It follows the active
// meal: whenever the shared pointer changes, the old per-meal subscription
// is released and a new one opened for the new meal.
func (r *Reporter) Run(ctx context.Context) {
	mealsCh, cancelMeals := r.hub.Subscribe(feed.TopicMeals)
	defer cancelMeals()
	activeCh, cancelActive := r.hub.Subscribe(feed.TopicActive)
	defer cancelActive()

	var (
		mealCh     <-chan feed.Event
		cancelMeal func()
	)
	release := func() {
		if cancelMeal != nil {
			cancelMeal()
			mealCh, cancelMeal = nil, nil
		}
	}
	defer release()

	if id, err := meal.Active(r.db); err == nil {
		mealCh, cancelMeal = r.hub.Subscribe(feed.MealTopic(id))
	}

	digest := r.digestTimer()
	if digest != nil {
		defer digest.Stop()
	}
	var digestCh <-chan time.Time
	if digest != nil {
		digestCh = digest.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-mealsCh:
			if ev.Kind == feed.KindMealCompleted {
				r.announceCompleted(ctx, ev.MealID)
			}
		case ev := <-activeCh:
			release()
			if ev.MealID != "" {
				mealCh, cancelMeal = r.hub.Subscribe(feed.MealTopic(ev.MealID))
			}
		case ev := <-mealCh:
			if ev.Kind == feed.KindDelivered {
				r.checkFullyDelivered(ctx, ev.MealID)
			}
		case <-digestCh:
			r.postDigest(ctx)
			digest.Reset(nextCronDuration(r.digestExpr))
		}
	}
}

// digestTimer returns a timer for the next digest fire, or nil when the
// digest is disabled or the expression does not parse.
func (r *Reporter) digestTimer() *time.Timer {
	if r.digestExpr == "" {
		return nil
	}
	d := nextCronDuration(r.digestExpr)
	if d == 0 {
		slog.Warn("digest disabled: bad cron expression", "expr", r.digestExpr)
		return nil
	}
	return time.NewTimer(d)
}

func (r *Reporter) announceCompleted(ctx context.Context, mealID string) {
	m, err := meal.Get(r.db, mealID)
	if err != nil {
		slog.Error("notify: load completed meal", "meal", mealID, "error", err)
		return
	}
	r.send(ctx, Event{
		Title: "Meal complete: " + m.Name,
		Body:  "The meal has been marked complete and is no longer accepting assignments.",
	})
}

func (r *Reporter) checkFullyDelivered(ctx context.Context, mealID string) {
	if r.fullyDelivered[mealID] {
		return
	}
	v, err := view.Build(r.db, mealID)
	if err != nil {
		slog.Error("notify: build view", "meal", mealID, "error", err)
		return
	}
	if v.AssignedTotal == 0 || v.DeliveredTotal < v.AssignedTotal {
		return
	}
	r.fullyDelivered[mealID] = true
	r.send(ctx, Event{
		Title: "All pots delivered: " + v.MealName,
		Body:  fmt.Sprintf("%d of %d pots delivered across %d halls.",
			v.DeliveredTotal, v.AssignedTotal, len(v.Halls)),
	})
}

// postDigest summarizes the active meal's delivery progress.
func (r *Reporter) postDigest(ctx context.Context) {
	id, err := meal.Active(r.db)
	if err != nil {
		return
	}
	v, err := view.Build(r.db, id)
	if err != nil {
		slog.Error("notify: digest view", "meal", id, "error", err)
		return
	}

	body := fmt.Sprintf("%d of %d pots delivered.", v.DeliveredTotal, v.AssignedTotal)
	for _, g := range v.Halls {
		body += fmt.Sprintf("\n%s: %d/%d", g.HallName, g.DeliveredTotal, g.AssignedTotal)
	}
	r.send(ctx, Event{
		Title: "Delivery digest: " + v.MealName,
		Body:  body,
	})
}

func (r *Reporter) send(ctx context.Context, ev Event) {
	if err := r.notifier.Send(ctx, ev); err != nil {
		slog.Error("notify: send", "title", ev.Title, "error", err)
	}
}
