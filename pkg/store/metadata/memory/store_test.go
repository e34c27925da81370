package memory_test

import (
	"testing"

	"github.com/marmos91/dittobox/pkg/store/metadata"
	"github.com/marmos91/dittobox/pkg/store/metadata/memory"
	metadatatesting "github.com/marmos91/dittobox/pkg/store/metadata/testing"
)

func TestMemoryMetadataStore(t *testing.T) {
	suite := &metadatatesting.StoreTestSuite{
		NewStore: func(t *testing.T) metadata.MetadataStore {
			return memory.NewMemoryMetadataStore()
		},
	}
	suite.Run(t)
}
