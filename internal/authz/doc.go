// Package authz is the consumed authorization boundary for ledger and obligation writes.
//
// Identity and membership are owned by an external provider; by the time a request reaches
// this package the caller is a verified Principal carrying its organization and role. A Gate
// only answers allow/deny for one (principal, organization, obligation, action) tuple.
package authz
