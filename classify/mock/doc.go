// Package mock provides test double implementations of the classification
// provider interfaces.
//
// This package contains mock implementations of classify.Classifier,
// classify.BulkClassifier, and classify.Provider for use in unit tests. The
// mocks allow tests to run without an external classification service and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	tags, err := mockProvider.Classifier().Classify(ctx, "photos/dog.jpg", []string{"dog", "cat"})
//
//	// Scripting a bulk job lifecycle
//	bulk := mockProvider.(*mock.MockProvider).GetMockBulkClassifier()
//	receipt, _ := bulk.SubmitJob(ctx, "ref", items, vocabulary)
//	bulk.CompleteJob(receipt.JobId, results)
//
// # Default Behavior
//
//   - MockClassifier: returns every vocabulary label contained in the image
//     reference, so tests steer output through item naming
//   - MockBulkClassifier: keeps submitted jobs in progress until the test
//     resolves them with CompleteJob or ForgetJob
package mock
