package identity

import "time"

// TokenCarrier moves the session token between the service and the
// transport, usually a cookie.
type TokenCarrier interface {
	Token() string
	SetToken(token string, expires time.Time)
	ClearToken()
}
