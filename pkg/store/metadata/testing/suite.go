package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittobox/pkg/store/metadata"
)

// StoreTestSuite is a comprehensive test suite for MetadataStore
// implementations. It tests the interface contract, not implementation
// details, making it reusable across different backends (memory, BadgerDB).
//
// Usage:
//
//	func TestMyMetadataStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) metadata.MetadataStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh MetadataStore
	// instance for each test. This ensures test isolation. Use t.TempDir
	// and t.Cleanup for backends that need disk or teardown.
	NewStore func(t *testing.T) metadata.MetadataStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("UserOperations", suite.RunUserTests)
	t.Run("FileOperations", suite.RunFileTests)
	t.Run("Listing", suite.RunListingTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
