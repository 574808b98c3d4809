package main

import "math"

const (
	votePoints      = 100
	quiplashBonus   = 500
	nonVoterPenalty = 20
)

// ScoreBreakdown is the result of scoring one answer at reveal time.
type ScoreBreakdown struct {
	BaseScore     int
	QuiplashBonus int
	Multiplier    float64
	StreakBonus   int
	Total         int
}

// calculateScore is pure: same vote counts, round position and streak always
// produce the same totals. The streak multiplier (1.5x/2x/2.5x at 3/5/7
// consecutive wins) is modeled here but the reveal path passes 0, leaving it
// dormant; see DESIGN.md.
func calculateScore(votesReceived, totalVoters int, isLastRound bool, currentWinStreak int) ScoreBreakdown {
	base := votesReceived * votePoints

	// A unanimous sweep only counts with a real voting pool behind it.
	bonus := 0
	if votesReceived == totalVoters && totalVoters > 1 {
		bonus = quiplashBonus
	}

	roundMultiplier := 1.0
	if isLastRound {
		roundMultiplier = 2.0
	}

	streakMultiplier := 1.0
	switch {
	case currentWinStreak >= 7:
		streakMultiplier = 2.5
	case currentWinStreak >= 5:
		streakMultiplier = 2.0
	case currentWinStreak >= 3:
		streakMultiplier = 1.5
	}

	streakBonus := 0
	if currentWinStreak >= 3 {
		streakBonus = int(math.Floor(float64(base) * (streakMultiplier - 1)))
	}

	total := math.Floor(float64(base+bonus) * roundMultiplier * streakMultiplier)

	return ScoreBreakdown{
		BaseScore:     base,
		QuiplashBonus: bonus,
		Multiplier:    roundMultiplier * streakMultiplier,
		StreakBonus:   streakBonus,
		Total:         int(total),
	}
}

// VoteTally splits a match's collections into scoring votes and
// spectator votes, which only ever break ties on screen.
type VoteTally struct {
	RegularA   int
	RegularB   int
	SpectatorA int
	SpectatorB int
}

func tallyVotes(m Match, players map[string]Player) VoteTally {
	var t VoteTally
	for _, id := range m.VotesA {
		if players[id].IsSpectator {
			t.SpectatorA++
		} else {
			t.RegularA++
		}
	}
	for _, id := range m.VotesB {
		if players[id].IsSpectator {
			t.SpectatorB++
		} else {
			t.RegularB++
		}
	}
	return t
}

// matchWinner resolves the on-screen outcome: "A"/"B" on regular votes,
// "A_CROWD"/"B_CROWD" when spectators break a regular-vote tie, "" otherwise.
func matchWinner(t VoteTally) string {
	switch {
	case t.RegularA > t.RegularB:
		return "A"
	case t.RegularB > t.RegularA:
		return "B"
	case t.SpectatorA > t.SpectatorB:
		return "A_CROWD"
	case t.SpectatorB > t.SpectatorA:
		return "B_CROWD"
	default:
		return ""
	}
}
