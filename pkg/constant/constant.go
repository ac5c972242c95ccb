package constant

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const (
	TokenIssuer   = "koulio-backend"
	TokenAudience = "koulio-client"
)

// Pagination defaults for admin listings.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)
