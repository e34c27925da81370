package memory_test

import (
	"testing"

	"github.com/marmos91/dittobox/pkg/store/content"
	"github.com/marmos91/dittobox/pkg/store/content/memory"
	contenttesting "github.com/marmos91/dittobox/pkg/store/content/testing"
)

func TestMemoryContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.WritableContentStore {
			return memory.NewMemoryContentStore()
		},
	}
	suite.Run(t)
}
