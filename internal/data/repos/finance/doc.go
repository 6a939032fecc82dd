// Package finance holds the table repos behind the financial consistency engine.
//
// Repos never compute aggregates. Derived columns (total_paid, paid_amount,
// payment_status) are written only through SetDerivedTotals / SetDerived, which the
// aggregation engine calls while holding the row locks.
package finance
