// Package service holds the Sheepify use cases: registration and login, the
// sleep session lifecycle, the currency ledger and the collectible inventory.
//
// Services depend on the store interfaces, never on the postgres package.
// Operations that touch more than one table (completing a session, buying an
// item, minting a reward collectible) run in one transaction through
// store.RunInTransaction, and services that take part in another service's
// transaction expose WithTx.
//
// Domain events (session.completed) are emitted only after the transaction
// commits, so subscribers such as the leaderboard never see rolled-back work.
package service
