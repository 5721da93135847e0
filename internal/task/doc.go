// Package task runs recurring-task maintenance in the background.
//
// On-demand work flows from template events through a TaskQueue to a
// WorkerPool. Periodic work is driven by a cron Scheduler calling
// MaintenanceRunner.RunOnce, which materializes every active template and
// then prunes old instances.
package task
