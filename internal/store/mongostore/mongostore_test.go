package mongostore_test

import (
	"context"
	"os"
	"testing"

	"aicruit/internal/store/mongostore"
	"aicruit/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real MongoDB server named by AICRUIT_TEST_MONGO_URI.
func TestStore(t *testing.T) {
	uri := os.Getenv("AICRUIT_TEST_MONGO_URI")
	if uri == "" || testing.Short() {
		t.Skip("AICRUIT_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := mongostore.New(ctx, uri, "aicruit_test")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	storetest.Run(t, s)
}

func TestNewValidatesArguments(t *testing.T) {
	ctx := context.Background()
	_, err := mongostore.New(ctx, "", "aicruit")
	assert.Error(t, err)
	_, err = mongostore.New(ctx, "mongodb://localhost:27017", "")
	assert.Error(t, err)
}
