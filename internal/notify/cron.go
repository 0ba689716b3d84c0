package notify

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Digest schedules are 5-field cron expressions: minute, hour, day of
// month, month, day of week.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration returns how long until expr next fires. A zero return
// means the expression did not parse; callers treat that as "digest off".
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		return 0
	}
	return d
}
