// Package models defines the domain records of the receipts store.
//
// The package contains:
//
// 1. The persisted record
//   - [ReceiptWarranty] : one row of receipt_warranty, with nullable fields as pointers
//   - [Kind], [ReminderDays] : enumerations stored by symbolic name only
//
// 2. Derived views, never persisted
//   - [WarrantyStatus] : VALID, EXPIRING_SOON, EXPIRED or NO_WARRANTY at a given instant
//   - [WarrantyFilter] : listing filters applied in memory by [FilterByStatus]
//   - [CategoryCount], [Summary] : aggregates for reporting
//
// [Reader], [Writer] and [Store] describe the record store so export and UI code can be tested without a database.
package models
