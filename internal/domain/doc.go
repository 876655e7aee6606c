// Package domain defines the Sheepify entities (accounts, sleep sessions,
// collectibles, ledger entries) with their validation rules and errors.
// Scoring and reward math live in the scoring and reward subpackages.
package domain
