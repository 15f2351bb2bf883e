package sqlite

import (
	"context"
	"time"

	authdomain "github.com/weatherwise/weatherwise/internal/auth/domain"
)

type mfaProfilesRepo struct {
	db dbtx
}

func (r *mfaProfilesRepo) GetProfile(ctx context.Context, userID string) (authdomain.PhoneMFAProfile, error) {
	var (
		p       authdomain.PhoneMFAProfile
		enabled int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, enabled, phone_number
		FROM mfa_profiles
		WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &enabled, &p.PhoneNumber)
	if err != nil {
		return authdomain.PhoneMFAProfile{}, mapNotFound(err)
	}
	p.Enabled = enabled != 0
	return p, nil
}

func (r *mfaProfilesRepo) UpsertProfile(ctx context.Context, p authdomain.PhoneMFAProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mfa_profiles (user_id, enabled, phone_number, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			enabled = excluded.enabled,
			phone_number = excluded.phone_number,
			updated_at = excluded.updated_at`,
		p.UserID, boolToInt(p.Enabled), p.PhoneNumber, time.Now().UTC())
	return err
}

func (r *mfaProfilesRepo) DeleteProfile(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM mfa_profiles WHERE user_id = ?`, userID)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
