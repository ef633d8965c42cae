// Package mocks provides test doubles for ports interfaces.
//
// These mocks are designed to be simple, thread-safe, in-memory implementations
// suitable for unit testing. Each mock provides:
//
//   - Default behavior that returns reasonable test values
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Helper methods for setting state directly
//   - Reset methods for test isolation
//
// # Usage Example
//
//	func TestStoreCreate(t *testing.T) {
//		repo := mocks.NewRecordRepository("firestore")
//		repo.AddDocument(domain.Document{"id": "1", "provinsi": "Riau"})
//
//		store := casestore.New(datasource.New(repo, nil, cfg, &logger), repo, mocks.NewAuditLog(), &logger)
//		// ... test store behavior
//	}
//
// # Available Mocks
//
//   - RecordRepository: implements ports.RecordRepository
//   - AuditLog: implements ports.AuditLogger
//   - Principal: implements ports.Principal
package mocks
