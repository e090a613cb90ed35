package middleware

// Capability names one row of the access table.
type Capability string

const (
	CapabilityPublic         Capability = "public"
	CapabilityVerifiedArtist Capability = "verified_artist"
	CapabilityAdmin          Capability = "admin"
)

// accessTable maps each capability to the predicate a principal must pass.
// A nil predicate means no authentication is required.
var accessTable = map[Capability]func(*Principal) bool{
	CapabilityPublic:         nil,
	CapabilityVerifiedArtist: (*Principal).IsVerifiedMusician,
	CapabilityAdmin:          (*Principal).IsAdmin,
}

// Allows reports whether p satisfies capability c. Unknown capabilities deny.
func Allows(c Capability, p *Principal) bool {
	check, ok := accessTable[c]
	if !ok {
		return false
	}
	if check == nil {
		return true
	}
	return check(p)
}
