// Package repositories implements SQLite persistence for receipt and warranty records.
//
// [ReceiptWarrantyRepository] issues fixed, parameterized SQL against receipt_warranty and maps rows to
// [models.ReceiptWarranty], translating enum columns at the boundary. Dynamic listings ([ReceiptWarrantyRepository.Find],
// [ReceiptWarrantyRepository.Search]) are built with squirrel.
//
// Each mutation runs in one transaction. After a commit that changed rows, the repository invalidates the table on its
// [live.Tracker], which re-runs every Watch* query.
package repositories
