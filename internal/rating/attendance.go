package rating

// AttendanceUpdate is the outcome of one attendance pass for one player.
type AttendanceUpdate struct {
	NewMMR       float64
	NewMisses    int
	DecayApplied int
}

// UpdateAttendance applies the "slow forgiveness" model for one checked-in
// player at reveal. Attending (both games submitted) works off two misses
// instead of resetting the counter; missing adds one, and every miss past
// the threshold costs decayAmount MMR.
//
// The MMR passed in must already include the session's Elo and bonus changes:
// decay is a second phase and never back-dates into the competitive result.
// No zero floor is applied; a negative MMR is left for admin intervention.
func UpdateAttendance(attended bool, mmr float64, misses, decayAmount, decayThreshold int) AttendanceUpdate {
	if attended {
		newMisses := misses - 2
		if newMisses < 0 {
			newMisses = 0
		}
		return AttendanceUpdate{NewMMR: mmr, NewMisses: newMisses}
	}

	newMisses := misses + 1
	if newMisses <= decayThreshold {
		return AttendanceUpdate{NewMMR: mmr, NewMisses: newMisses}
	}

	decayCount := newMisses - decayThreshold
	decay := -(decayCount * decayAmount)
	return AttendanceUpdate{
		NewMMR:       mmr + float64(decay),
		NewMisses:    newMisses,
		DecayApplied: decay,
	}
}
