// Package events lets services publish economy events without knowing who
// consumes them.
//
// Services emit an Event after their transaction commits. Handlers such as
// the leaderboard and the background task dispatcher subscribe through an
// EventEmitter. Handler failures are logged and never undo the change that
// produced the event.
package events
