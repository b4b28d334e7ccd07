package access

// Flags are the access bits carried in a session. IsAdmin comes from the
// faction guild's permissions, IsMember and IsSpecial from the recruitment
// backend.
type Flags struct {
	IsMember  bool `json:"isMember"`
	IsSpecial bool `json:"isSpecial"`
	IsAdmin   bool `json:"isAdmin"`
}

// HasAccess reports whether the flags grant portal access.
func HasAccess(f Flags) bool {
	return f.IsMember || f.IsSpecial || f.IsAdmin
}
