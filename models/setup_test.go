package models

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/operis/vigil/pkg/ctx"
	"github.com/operis/vigil/pkg/ormx"

	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) *ctx.Context {
	t.Helper()

	db, err := ormx.New(ormx.DBConfig{
		DBType: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "vigil.db"),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Configs{}, &User{}, &UserKPI{}, &VigilanceAlert{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return ctx.NewContext(context.Background(), db)
}
