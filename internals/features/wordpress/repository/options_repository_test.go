package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertytools_backend/internals/databases/dbtest"
)

func TestGetMissingOption(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewOptionsRepository(db, dbtest.Tables)

	mock.ExpectQuery(`^SELECT \* FROM .wp_options. WHERE option_name = \? LIMIT \S+$`).
		WillReturnRows(sqlmock.NewRows([]string{"option_id", "option_name", "option_value", "autoload"}))

	v, ok, err := repo.Get(context.Background(), "wts_notification_recipients")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSetUpsertsWithAutoload(t *testing.T) {
	db, mock := dbtest.New(t)
	repo := NewOptionsRepository(db, dbtest.Tables)

	mock.ExpectExec(`^INSERT INTO .wp_options. \(.option_name.,.option_value.,.autoload.\) VALUES \(\?,\?,\?\) ON DUPLICATE KEY UPDATE .option_value.`).
		WithArgs("blogname", "Lakeside Homes", "on").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Set(context.Background(), "blogname", "Lakeside Homes", true))
}

func TestDeleteTxWithoutNamesIssuesNoQuery(t *testing.T) {
	db, _ := dbtest.New(t)
	require.NoError(t, DeleteTx(db, dbtest.Tables))
}
