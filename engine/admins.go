package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AdminAccount is an administrator credential row. The password hash never
// leaves this package's callers.
type AdminAccount struct {
	ID       string
	Email    string
	PassHash string
}

// SeedAdmin inserts an administrator account if the email is not yet taken.
// Used at startup to bootstrap the first admin from config.
func (e *Engine) SeedAdmin(ctx context.Context, email, passHash string, now time.Time) error {
	_, err := e.db.ExecContext(ctx, `
		INSERT INTO admin_account (id, email, pass_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING
	`, uuid.NewString(), email, passHash, now)
	if err != nil {
		return storageErr("seed admin", err)
	}
	return nil
}

// GetAdminByEmail loads an administrator account for login.
func (e *Engine) GetAdminByEmail(ctx context.Context, email string) (AdminAccount, error) {
	var a AdminAccount
	err := e.db.QueryRowContext(ctx, `
		SELECT id, email, pass_hash FROM admin_account WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.PassHash)
	if isNotFound(err) {
		return AdminAccount{}, notFound("no admin account for %s", email)
	}
	if err != nil {
		return AdminAccount{}, storageErr("load admin", err)
	}
	return a, nil
}
