package domain

// Role is the authorization role carried in a token.
type Role string

// RoleProvider is the only role this service issues.
const RoleProvider Role = "PROVIDER"
