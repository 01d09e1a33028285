package identity

// Config is the subset of the application config the identity service needs
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	// GetContextKey is the session cookie name
	GetContextKey() string
	// GetTokenExpiration is the session lifetime in hours
	GetTokenExpiration() int
	GetPasswordCost() int
}
