package entitlement

// Merge combines the profile record and the paid subscription record of a
// user. Either may be nil; Merge returns nil only when both are.
//
// An active or trialing subscription wins: it is a paid plan and carries no
// tester expiry, whatever the profile says. Otherwise the profile decides, so
// a tester grant is not hidden by a lapsed or never-started subscription.
// A subscription that grants nothing is still reported when the profile has
// no status of its own, so the user sees it as canceled rather than free.
func Merge(profile, subscription *Record) *Record {
	var sub *Record
	if subscription != nil {
		s := *subscription
		s.Tier = TierStandard
		s.TesterExpiresAt = nil
		sub = &s
	}

	switch {
	case sub != nil && (sub.Status == StatusActive || sub.Status == StatusTrialing):
		return sub
	case profile == nil:
		return sub
	case sub != nil && profile.Status == StatusNone:
		return sub
	default:
		p := *profile
		return &p
	}
}
