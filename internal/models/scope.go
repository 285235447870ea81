package models

// Scope partitions rows between the whole household and a single member.
type Scope string

const (
	ScopeShared   Scope = "SHARED"
	ScopePersonal Scope = "PERSONAL"
)

// ValidScope reports whether s is a persistable scope value.
func ValidScope(s Scope) bool {
	return s == ScopeShared || s == ScopePersonal
}
