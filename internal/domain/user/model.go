package user

// Principal is the authenticated caller resolved by the identity
// collaborator. IsAdmin marks platform operators who bypass league ownership
// checks.
type Principal struct {
	UserID      string
	DisplayName string
	IsAdmin     bool
}
