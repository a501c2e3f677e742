package badgerstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/storetest"
)

func TestInMemoryStore(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()
	storetest.Run(t, s)
}

func TestPersistentStore(t *testing.T) {
	s, err := Open(Config{Path: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()
	storetest.Run(t, s)
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	storetest.Reopen(t, func() (store.Store, error) {
		return Open(Config{Path: dir, SyncWrites: true})
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}
