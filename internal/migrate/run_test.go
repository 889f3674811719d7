package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhmdnab/tolabi/internal/testutil"
)

func TestVersions(t *testing.T) {
	versions, err := Versions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, "0001_console_sessions", versions[0])
}

func TestRun_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)

	ctx := context.Background()
	require.NoError(t, Run(ctx, db, nil))
	require.NoError(t, Run(ctx, db, nil))

	var exists bool
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = 'console_sessions')`,
	).Scan(&exists))
	assert.True(t, exists)
}
