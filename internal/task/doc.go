// Package task runs background work off the request path. A cron Scheduler
// emits generation requests, an event handler turns them into tasks, and a
// WorkerPool drains the in-memory queue the Runner feeds.
package task
