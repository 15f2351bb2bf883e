package domain

import "time"

// User is the identity-provider view of a signed-in account.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// PhoneMFAProfile is the locally persisted user↔MFA record, one row per
// user id. It lets the UI restore enrollment state after a restart without
// querying the identity provider's live enrollment list.
type PhoneMFAProfile struct {
	UserID      string
	Enabled     bool
	PhoneNumber string
}
