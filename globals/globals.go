package globals

// JwtSecret signs and verifies bearer tokens. main replaces it with the
// configured secret at startup.
var JwtSecret = []byte("your_secret_key")

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"
