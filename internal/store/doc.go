// Package store holds the budgetbuddy repositories.
//
// Every statement is parameterized, scoped to the owning user and issued
// through a gateway.Querier, so failures arrive already classified as
// *budgetbuddy.DBError. Lookups that match no row return budgetbuddy.ErrNotFound.
package store
