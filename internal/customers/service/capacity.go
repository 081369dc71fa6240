package service

// Decision is the outcome of the capacity policy.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow is the positive capacity decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny is a negative capacity decision carrying the reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanAssign decides whether a consultant may take one more customer.
//
// The check only binds capacity-limited consultants. A limited consultant
// at or over the limit is denied only while at least one other limited,
// active consultant still has room. When nobody has room the assignment
// is allowed anyway, so the pool never hard-blocks; that asymmetry is
// deliberate and must not be tightened into a hard cap.
func CanAssign(capacityLimited bool, limit, currentLoad, othersWithSpace int) Decision {
	if !capacityLimited {
		return Allow()
	}
	if currentLoad >= limit && othersWithSpace > 0 {
		return Deny("consultant is at capacity while other consultants have room")
	}
	return Allow()
}
