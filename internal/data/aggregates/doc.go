// Package aggregates contains infrastructure implementations of the finance aggregate contracts.
//
// Every write composes the table repos from internal/data/repos inside one transaction,
// takes row locks in the order project, assignment, obligation, and recomputes the
// derived totals before commit.
package aggregates
