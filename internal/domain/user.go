package domain

// Account is the record returned by the account-lookup database for a token.
type Account struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// User is the identity an inbound request authenticated as.
//
// Secret is true when the identity came from a "<secret>.<username>" token
// rather than an account lookup; such users carry only a username.
type User struct {
	Username string
	Secret   bool
	Account  *Account
}
