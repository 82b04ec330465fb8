package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"placement-storefront/models"
	"placement-storefront/storage"
)

func newMockPersister(t *testing.T) (*KVPersister, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewKVPersister(NewConnectionFromDB(db, zap.NewNop())), mock
}

func TestKVPersister_Load(t *testing.T) {
	p, mock := newMockPersister(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM storefront_kv")).
		WithArgs("p1", models.CartKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"ids":["a"],"version":3}`)))

	data, err := p.Load(context.Background(), "p1", models.CartKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ids":["a"],"version":3}`, string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVPersister_LoadMissing(t *testing.T) {
	p, mock := newMockPersister(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM storefront_kv")).
		WithArgs("p1", models.PendingEnrollmentKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := p.Load(context.Background(), "p1", models.PendingEnrollmentKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVPersister_SaveUpserts(t *testing.T) {
	p, mock := newMockPersister(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO storefront_kv")).
		WithArgs("p1", models.CartKey, []byte(`["a"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.Save(context.Background(), "p1", models.CartKey, []byte(`["a"]`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVPersister_Delete(t *testing.T) {
	p, mock := newMockPersister(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM storefront_kv")).
		WithArgs("p1", models.CartKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, p.Delete(context.Background(), "p1", models.CartKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKVPersister_ErrorsAreWrapped(t *testing.T) {
	p, mock := newMockPersister(t)
	dbErr := errors.New("connection reset")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO storefront_kv")).WillReturnError(dbErr)

	err := p.Save(context.Background(), "p1", models.CartKey, []byte(`[]`))
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestEnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS storefront_kv")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	conn := NewConnectionFromDB(db, zap.NewNop())
	require.NoError(t, conn.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDSN(t *testing.T) {
	dsn := DatabaseConfig{Host: "db:3306", User: "app", Password: "pw", DBName: "storefront"}.DSN()
	assert.Contains(t, dsn, "app:pw@tcp(db:3306)/storefront")
	assert.Contains(t, dsn, "parseTime=true")
}
