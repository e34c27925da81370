package memory_test

import (
	"testing"

	"github.com/marmos91/dittobox/pkg/store/session"
	"github.com/marmos91/dittobox/pkg/store/session/memory"
	sessiontesting "github.com/marmos91/dittobox/pkg/store/session/testing"
)

func TestMemorySessionStore(t *testing.T) {
	suite := &sessiontesting.StoreTestSuite{
		NewStore: func(t *testing.T) session.SessionStore {
			store := memory.NewMemorySessionStore()
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
	suite.Run(t)
}
