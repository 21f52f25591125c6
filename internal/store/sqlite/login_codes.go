package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/notedapp/noted-server/internal/domain"
	"github.com/notedapp/noted-server/internal/store"
)

// loginCodeColumns is the ordered list of columns selected in login code queries.
// Must match the scan order in scanLoginCode.
const loginCodeColumns = `id, user_id, code_hash, expires_at, created_at, used_at`

// scanLoginCode scans a sql.Row (or sql.Rows via its Scan method) into a domain.LoginCode.
func scanLoginCode(scanner interface{ Scan(dest ...any) error }) (*domain.LoginCode, error) {
	var c domain.LoginCode

	var (
		expiresAt string
		createdAt string
		usedAt    sql.NullString
	)

	err := scanner.Scan(
		&c.ID,
		&c.UserID,
		&c.CodeHash,
		&expiresAt,
		&createdAt,
		&usedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.UsedAt, err = parseNullableTime(usedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// CreateLoginCode inserts a new login code into the database.
// Returns store.ErrAlreadyExists on a duplicate ID or code hash.
func (s *Store) CreateLoginCode(ctx context.Context, code *domain.LoginCode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO login_codes (id, user_id, code_hash, expires_at, created_at, used_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		code.ID,
		code.UserID,
		code.CodeHash,
		formatTime(code.ExpiresAt),
		formatTime(code.CreatedAt),
		nullTimeString(code.UsedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetLoginCodeByHash retrieves a login code by its hash.
// Returns store.ErrNotFound if no code matches.
func (s *Store) GetLoginCodeByHash(ctx context.Context, hash string) (*domain.LoginCode, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+loginCodeColumns+` FROM login_codes WHERE code_hash = ?`, hash)

	c, err := scanLoginCode(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ConsumeLoginCode marks a login code as used.
// Returns store.ErrNotFound if the code does not exist or was already consumed,
// so a code can only ever be exchanged once.
func (s *Store) ConsumeLoginCode(ctx context.Context, id string) error {
	now := formatTime(time.Now())

	result, err := s.db.ExecContext(ctx, `
		UPDATE login_codes SET used_at = ?
		WHERE id = ? AND used_at IS NULL`,
		now, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteExpiredLoginCodes deletes all codes past their expiration.
// Returns the number of codes deleted.
func (s *Store) DeleteExpiredLoginCodes(ctx context.Context) (int, error) {
	now := formatTime(time.Now())

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM login_codes WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
