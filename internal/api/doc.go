// Package api holds the HTTP handlers of the sleep economy: registration and
// login, the sleep session lifecycle, currency, collectibles and the weekly
// leaderboard. Handlers decode and validate requests, call the services and
// map domain errors to status codes; they hold no business rules.
package api
