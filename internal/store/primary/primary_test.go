package primary_test

import (
	"context"
	"os"
	"testing"

	"aicruit/internal/store/primary"
	"aicruit/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real PostgreSQL database named by AICRUIT_TEST_DSN.
func TestStore(t *testing.T) {
	dsn := os.Getenv("AICRUIT_TEST_DSN")
	if dsn == "" || testing.Short() {
		t.Skip("AICRUIT_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := primary.NewPrimaryStore(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	storetest.Run(t, s)
}

func TestNewPrimaryStoreRequiresDSN(t *testing.T) {
	_, err := primary.NewPrimaryStore(context.Background(), "")
	assert.Error(t, err)
}
