// Package aggregates defines the write boundaries of the financial consistency engine.
//
// A ledger mutation and the recompute of every aggregate it feeds (obligation paid amount
// and status, assignment total, project total) commit or roll back together. Contracts
// here carry no persistence details; implementations live in internal/data/aggregates.
package aggregates
