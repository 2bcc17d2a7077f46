package models

// ClientMeta carries request audit attributes attached to sessions.
type ClientMeta struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// PendingRegistration is the transient signup payload kept in the ephemeral
// store between registration-init and registration-complete.
type PendingRegistration struct {
	Email        string      `json:"email"`
	PasswordHash string      `json:"passwordHash"`
	FirstName    string      `json:"firstName"`
	Meta         *ClientMeta `json:"meta,omitempty"`
}
