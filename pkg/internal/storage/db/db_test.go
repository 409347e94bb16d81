package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/storage/db"
)

type probe struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestNewSQLiteInMemory(t *testing.T) {
	ctx := context.Background()

	client, err := db.New(ctx, &configs.DBConfig{Type: configs.SQLite, Database: ":memory:", MaxIdleConns: 1})
	require.NoError(t, err)

	defer client.Close()

	require.NoError(t, client.Migrate(ctx, &probe{}))
	require.NoError(t, client.Create(&probe{Name: "a"}).Error)

	var n int64
	require.NoError(t, client.Model(&probe{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestRegisteredDialectors(t *testing.T) {
	assert.ElementsMatch(t, []configs.DBType{configs.MySQL, configs.PostgreSQL, configs.SQLite}, db.GetRegisteredDBTypes())
}

func TestDialectAliases(t *testing.T) {
	for typ, want := range map[configs.DBType]configs.DBType{
		configs.Pg:       configs.PostgreSQL,
		configs.Postgres: configs.PostgreSQL,
		configs.MariaDB:  configs.MySQL,
		configs.SQLite:   configs.SQLite,
	} {
		c := configs.DBConfig{Type: typ}
		assert.Equal(t, want, c.Dialect(), typ)
	}
}

func TestUnsupportedType(t *testing.T) {
	_, err := db.New(context.Background(), &configs.DBConfig{Type: "oracle"})
	assert.Error(t, err)
}
