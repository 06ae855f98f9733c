package contextx

// Key is a private type to avoid collisions in request context keys.
type Key string

// UserIDKey is the context key used to store the authenticated user's ID (string).
const UserIDKey Key = "userID"

// UserKey is the context key used to store the authenticated *user.User.
const UserKey Key = "user"

// ClaimsKey is the context key used to store the verified *token.Claims.
const ClaimsKey Key = "claims"
