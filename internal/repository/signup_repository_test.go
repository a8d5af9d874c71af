package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
)

func newMockRepository(t *testing.T) (*SignupRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSignupRepository(db), mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectExec(regexp.QuoteMeta("IF OBJECT_ID(N'dbo.SignUps', N'U') IS NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	repo, mock := newMockRepository(t)
	query := regexp.QuoteMeta("SELECT COUNT(*) FROM dbo.SignUps WHERE SignUpID = @p1")

	mock.ExpectQuery(query).WithArgs(int64(1526294)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(query).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.Exists(context.Background(), 1526294)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsQueryError(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection reset"))

	_, err := repo.Exists(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestSave(t *testing.T) {
	repo, mock := newMockRepository(t)
	receivedAt := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	contract := "D-77"

	signup := &models.SignUpEvent{
		ID:             1526294,
		Abonent:        models.SignUpAbonent{ID: 11, Phone: "79308312222"},
		Address:        models.SignUpAddress{City: "Cheboksary", Street: models.SignUpStreet{Name: "Lenina"}, House: models.SignUpHouse{Number: "5"}},
		ContractNumber: &contract,
		Status:         "unprocessed",
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO dbo.SignUps")).
		WithArgs(int64(1526294), int64(11), "79308312222", "Cheboksary", "Lenina", "5", "unprocessed",
			"D-77", receivedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Save(context.Background(), signup, receivedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRejectsEmptyID(t *testing.T) {
	repo, _ := newMockRepository(t)
	err := repo.Save(context.Background(), &models.SignUpEvent{}, time.Now())
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	repo, mock := newMockRepository(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM dbo.SignUps")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}
