package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittobox/pkg/store/content"
)

// StoreTestSuite is a test suite for WritableContentStore implementations.
// It tests the interface contract, not implementation details, making it
// reusable across different backends (memory, filesystem, S3).
//
// Usage:
//
//	func TestMyContentStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore: func(t *testing.T) content.WritableContentStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh store instance
	// for each test. This ensures test isolation.
	NewStore func(t *testing.T) content.WritableContentStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("ReadOperations", suite.RunReadTests)
	t.Run("WriteOperations", suite.RunWriteTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
