package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
)

// SignupRepository journals received signup events in SQL Server so repeated
// deliveries of the same event can be recognised.
type SignupRepository struct {
	db *sql.DB
}

// NewSignupRepository creates a new repository instance.
func NewSignupRepository(db *sql.DB) *SignupRepository {
	return &SignupRepository{
		db: db,
	}
}

// Open connects to the journal database and verifies the connection.
func Open(ctx context.Context, connString string) (*SignupRepository, error) {
	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewSignupRepository(db), nil
}

// EnsureSchema creates the journal table when it does not exist.
func (r *SignupRepository) EnsureSchema(ctx context.Context) error {
	query := `
	IF OBJECT_ID(N'dbo.SignUps', N'U') IS NULL
	CREATE TABLE dbo.SignUps (
		SignUpID       BIGINT        NOT NULL PRIMARY KEY,
		AbonentID      BIGINT        NOT NULL,
		Phone          NVARCHAR(32)  NOT NULL,
		City           NVARCHAR(128) NOT NULL,
		Street         NVARCHAR(256) NOT NULL,
		House          NVARCHAR(32)  NOT NULL,
		Status         NVARCHAR(64)  NOT NULL,
		ContractNumber NVARCHAR(64)  NULL,
		ReceivedAt     DATETIME2     NOT NULL
	)
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create SignUps table: %w", err)
	}
	return nil
}

// Exists reports whether a signup has already been journalled.
func (r *SignupRepository) Exists(ctx context.Context, signupID int64) (bool, error) {
	query := "SELECT COUNT(*) FROM dbo.SignUps WHERE SignUpID = @p1"

	var count int
	if err := r.db.QueryRowContext(ctx, query, signupID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to look up signup %d: %w", signupID, err)
	}

	return count > 0, nil
}

// Save journals a signup event.
func (r *SignupRepository) Save(ctx context.Context, signup *models.SignUpEvent, receivedAt time.Time) error {
	if !signup.IsValid() {
		return fmt.Errorf("signup ID cannot be empty")
	}

	query := `
	INSERT INTO dbo.SignUps
		(SignUpID, AbonentID, Phone, City, Street, House, Status, ContractNumber, ReceivedAt)
	VALUES
		(@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9)
	`

	var contract sql.NullString
	if signup.ContractNumber != nil {
		contract = sql.NullString{String: *signup.ContractNumber, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		signup.ID,
		signup.Abonent.ID,
		string(signup.Abonent.Phone),
		signup.Address.City,
		signup.Address.Street.Name,
		signup.Address.House.Number,
		signup.Status,
		contract,
		receivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save signup %d: %w", signup.ID, err)
	}

	return nil
}

// Count returns the number of journalled signups.
func (r *SignupRepository) Count(ctx context.Context) (int, error) {
	query := "SELECT COUNT(*) FROM dbo.SignUps"

	var count int
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count signups: %w", err)
	}

	return count, nil
}

// Close closes the database connection
func (r *SignupRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
