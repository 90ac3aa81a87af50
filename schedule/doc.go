// Package schedule describes dynamic schedules: cron or interval schedules
// registered at runtime, and the registry of jobs attached to them.
//
// Schedules are fired by the backend. This package only validates
// schedule metadata and registers it through the run's IO:
//
//	reminders := schedule.NewDynamicSchedule("reminders")
//	eng.AttachDynamicSchedule(reminders.ID, remindJob)
//
//	// inside a job run
//	_, err := reminders.Register(ctx, rio, user.ID, schedule.Cron("0 9 * * 1-5"))
//
// Cron expressions use the standard 5-field syntax and descriptors such as
// "@daily" or "@every 2h". Intervals must be at least one minute.
package schedule
