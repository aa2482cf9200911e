package rules

// OwnedBy reports whether a record created by ownerID may be mutated by
// actingUserID. Records are owned by exactly one user and ownership never
// changes after creation, so equality is the whole check. Callers decide the
// error kind: a missing record must be reported as not found before this is
// consulted, a false result maps to forbidden.
func OwnedBy(ownerID, actingUserID int64) bool {
	if ownerID <= 0 || actingUserID <= 0 {
		return false
	}
	return ownerID == actingUserID
}
