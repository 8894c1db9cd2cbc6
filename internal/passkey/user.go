package passkey

import (
	"encoding/json"
	"fmt"

	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/mintwell/mintwell-server/internal/store"
)

// webAuthnUser adapts a stored user plus their credentials to the
// webauthn.User interface. The WebAuthn user handle is the user's UUID in
// its string form, so discoverable logins can map handles back to users.
type webAuthnUser struct {
	user        *store.User
	credentials []webauthn.Credential
}

func (u *webAuthnUser) WebAuthnID() []byte {
	return []byte(u.user.ID.String())
}

func (u *webAuthnUser) WebAuthnName() string {
	return u.user.Email
}

func (u *webAuthnUser) WebAuthnDisplayName() string {
	return u.user.Email
}

func (u *webAuthnUser) WebAuthnIcon() string {
	return ""
}

func (u *webAuthnUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}

func decodeCredentials(records []store.PasskeyCredential) ([]webauthn.Credential, error) {
	if len(records) == 0 {
		return nil, nil
	}
	creds := make([]webauthn.Credential, 0, len(records))
	for _, rec := range records {
		var c webauthn.Credential
		if err := json.Unmarshal(rec.Credential, &c); err != nil {
			return nil, fmt.Errorf("failed to decode credential %s: %w", rec.ID, err)
		}
		creds = append(creds, c)
	}
	return creds, nil
}
