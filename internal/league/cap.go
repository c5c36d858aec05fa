package league

// CapValidator is the salary-cap collaborator consulted before offseason
// handlers create contract-related events. Cap arithmetic itself lives
// outside this core.
type CapValidator interface {
	// ValidateSigning reports whether the team can open a signing window
	// for the given contract value. A nil error means cap-legal.
	ValidateSigning(dynasty, team string, value int64) error
}

// PermissiveCap approves everything; the default when no cap engine is
// wired in.
type PermissiveCap struct{}

// ValidateSigning always approves.
func (PermissiveCap) ValidateSigning(dynasty, team string, value int64) error {
	return nil
}
