// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	"Health": SecurityPublic,

	// Tool catalog
	"SearchTools":       SecurityPublic,
	"GetTool":           SecurityPublic,
	"ListToolReviews":   SecurityPublic,
	"CheckAvailability": SecurityPublic,
	"ListMyTools":       SecurityAccess,
	"AddTool":           SecurityAccess,
	"UpdateTool":        SecurityAccess,
	"DeleteTool":        SecurityAccess,

	// Reservations
	"QuotePrice":              SecurityPublic,
	"CreateReservation":       SecurityAccess,
	"ListMyReservations":      SecurityAccess,
	"GetReservation":          SecurityAccess,
	"UpdateReservationStatus": SecurityAccess,

	// Reviews
	"SubmitReview": SecurityAccess,

	// Users
	"GetUser": SecurityPublic,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
