package main

import (
	"context"
	"strconv"
	"time"
)

// referee drives one room's phase machine. Exactly one runs per room, owned
// by the TV connection: it watches the room tree and the absolute phase
// deadline, and commits every transition the clients themselves cannot.
// Clients render whatever state says; the referee is the only writer of
// phase flips, fill sweeps, reveals and round advancement.
type referee struct {
	cfg    *Config
	st     StateStore
	gen    Generator
	roomID string
	wake   chan struct{}
}

func newReferee(cfg *Config, st StateStore, gen Generator, roomID string) *referee {
	return &referee{
		cfg:    cfg,
		st:     st,
		gen:    gen,
		roomID: roomID,
		wake:   make(chan struct{}, 1),
	}
}

// run blocks until the room closes, disappears or ctx ends.
func (r *referee) run(ctx context.Context) {
	unsubscribe := r.st.Subscribe(roomPath(r.roomID), func(any) {
		select {
		case r.wake <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	heartbeat := time.NewTicker(r.cfg.heartbeatInterval)
	defer heartbeat.Stop()

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	logf(r.cfg, "REFEREE: Watching room %s", r.roomID)
	for {
		room, alive := r.step(ctx)
		if !alive {
			logf(r.cfg, "REFEREE: Room %s gone, stopping", r.roomID)
			return
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if deadline := room.GameState.PhaseEndTime; deadline > 0 {
			until := time.Duration(deadline-nowMillis()) * time.Millisecond
			if until < 0 {
				until = 0
			}
			// Small slack so a wake after the deadline sees it expired.
			timer.Reset(until + 50*time.Millisecond)
		}

		select {
		case <-ctx.Done():
			return
		case <-r.wake:
		case <-timer.C:
		case <-heartbeat.C:
			if err := touchRoom(r.st, r.roomID); err != nil {
				logf(r.cfg, "REFEREE: Heartbeat for %s failed: %s", r.roomID, err)
			}
		}
	}
}

// step reads the room and applies at most one transition. It reports whether
// the room still exists and is worth watching.
func (r *referee) step(ctx context.Context) (Room, bool) {
	var room Room
	exists, err := readAs(r.st, roomPath(r.roomID), &room)
	if err != nil {
		logf(r.cfg, "REFEREE: Reading room %s failed: %s", r.roomID, err)
		return Room{}, false
	}
	if !exists || room.IsClosed {
		return Room{}, false
	}

	now := nowMillis()
	expired := room.GameState.PhaseEndTime > 0 && now >= room.GameState.PhaseEndTime

	switch room.GameState.Status {
	case StatusInput:
		if expired || allSubmitted(room) {
			if err := r.beginVoting(ctx, room); err != nil {
				logf(r.cfg, "REFEREE: Begin voting in %s failed: %s", r.roomID, err)
			}
		}
	case StatusVoting:
		if expired || votingComplete(room) {
			if err := r.reveal(room); err != nil {
				logf(r.cfg, "REFEREE: Reveal in %s failed: %s", r.roomID, err)
			}
		}
	case StatusResults:
		if expired {
			if err := r.advance(room); err != nil {
				logf(r.cfg, "REFEREE: Advance in %s failed: %s", r.roomID, err)
			}
		}
	}

	return room, true
}

// allSubmitted reports whether every eligible player has finalized the
// current round.
func allSubmitted(room Room) bool {
	eligible := eligiblePlayers(room.Players)
	if len(eligible) == 0 {
		return false
	}
	for _, p := range eligible {
		if p.SubmittedRound != room.GameState.CurrentRound {
			return false
		}
	}
	return true
}

// votingComplete reports whether everyone allowed to vote on the current
// match has done so. Spectators count toward completion even though their
// votes never score; only the two featured players are excluded.
func votingComplete(room Room) bool {
	idx := room.GameState.CurrentMatchIndex
	if idx < 0 || idx >= len(room.Matches) {
		return false
	}
	m := room.Matches[idx]

	required := 0
	cast := 0
	for id := range room.Players {
		if id == m.PlayerA || id == m.PlayerB {
			continue
		}
		required++
		if hasVoted(m, id) {
			cast++
		}
	}
	return required > 0 && cast >= required
}

func hasVoted(m Match, playerID string) bool {
	for _, id := range m.VotesA {
		if id == playerID {
			return true
		}
	}
	for _, id := range m.VotesB {
		if id == playerID {
			return true
		}
	}
	return false
}

// beginVoting flips INPUT to VOTING in two steps: the phase changes first so
// clients stop accepting typing immediately, then after a short grace for
// in-flight auto-submits every still-empty answer is filled in one commit.
// The sweep only writes empty fields, so rerunning it is harmless.
func (r *referee) beginVoting(ctx context.Context, room Room) error {
	state := room.GameState
	state.Status = StatusVoting
	state.CurrentMatchIndex = 0
	state.PhaseEndTime = nowMillis() + r.cfg.submitGrace.Milliseconds() + int64(state.VoteTimeLimit)*1000
	state.FlavorText = phaseFlavor(StatusVoting, state.CurrentRound)

	logf(r.cfg, "REFEREE: Voting begins in %s (round %d)", r.roomID, state.CurrentRound)
	if err := r.st.Patch(roomPath(r.roomID), map[string]any{
		"gameState":  state,
		"lastActive": nowMillis(),
	}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.cfg.submitGrace):
	}

	return r.fillMissing(ctx)
}

// fillMissing writes generated or filler text into every empty answer field.
func (r *referee) fillMissing(ctx context.Context) error {
	var matches []Match
	exists, err := readAs(r.st, matchesPath(r.roomID), &matches)
	if err != nil || !exists {
		return err
	}

	fields := map[string]any{}
	for i, m := range matches {
		if m.ResponseA == "" {
			fields[joinPath(strconv.Itoa(i), "responseA")] = fillAnswer(ctx, r.gen, m.PromptText)
		}
		if m.ResponseB == "" {
			fields[joinPath(strconv.Itoa(i), "responseB")] = fillAnswer(ctx, r.gen, m.PromptText)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	logf(r.cfg, "REFEREE: Filled %d missing answers in %s", len(fields), r.roomID)
	return r.st.Patch(matchesPath(r.roomID), fields)
}

// reveal closes voting on the current match: both featured players are
// scored on their regular votes, eligible bystanders who never voted pay a
// small penalty, and the match flips to revealed. All of it lands in one
// commit so the TV never renders a half-scored reveal.
func (r *referee) reveal(room Room) error {
	idx := room.GameState.CurrentMatchIndex
	if idx < 0 || idx >= len(room.Matches) {
		return errNoSuchMatch
	}
	m := room.Matches[idx]
	tally := tallyVotes(m, room.Players)
	isLastRound := room.GameState.CurrentRound >= room.GameState.TotalRounds
	totalRegular := tally.RegularA + tally.RegularB

	scoreA := calculateScore(tally.RegularA, totalRegular, isLastRound, 0)
	scoreB := calculateScore(tally.RegularB, totalRegular, isLastRound, 0)

	fields := map[string]any{
		joinPath("matches", strconv.Itoa(idx), "revealed"): true,
		"lastActive": nowMillis(),
	}
	if a, ok := room.Players[m.PlayerA]; ok {
		fields[joinPath("players", m.PlayerA, "score")] = a.Score + scoreA.Total
	}
	if b, ok := room.Players[m.PlayerB]; ok {
		fields[joinPath("players", m.PlayerB, "score")] = b.Score + scoreB.Total
	}
	for _, p := range eligiblePlayers(room.Players) {
		if p.ID == m.PlayerA || p.ID == m.PlayerB || hasVoted(m, p.ID) {
			continue
		}
		fields[joinPath("players", p.ID, "score")] = p.Score - nonVoterPenalty
	}

	state := room.GameState
	state.Status = StatusResults
	state.PhaseEndTime = nowMillis() + r.cfg.revealDelay.Milliseconds()
	state.FlavorText = phaseFlavor(StatusResults, state.CurrentRound)
	fields["gameState"] = state

	logf(r.cfg, "REFEREE: Revealed match %d in %s (%d-%d, winner %s)",
		idx, r.roomID, tally.RegularA, tally.RegularB, matchWinner(tally))
	return r.st.Patch(roomPath(r.roomID), fields)
}

// advance moves past a revealed match: next match, next round, or podium.
func (r *referee) advance(room Room) error {
	state := room.GameState
	now := nowMillis()

	if next := state.CurrentMatchIndex + 1; next < len(room.Matches) {
		state.Status = StatusVoting
		state.CurrentMatchIndex = next
		state.PhaseEndTime = now + int64(state.VoteTimeLimit)*1000
		state.FlavorText = phaseFlavor(StatusVoting, state.CurrentRound)
		logf(r.cfg, "REFEREE: Match %d up in %s", next, r.roomID)
		return r.st.Patch(roomPath(r.roomID), map[string]any{
			"gameState":  state,
			"lastActive": now,
		})
	}

	if state.CurrentRound < state.TotalRounds {
		return r.nextRound(room)
	}

	state.Status = StatusPodium
	state.PhaseEndTime = 0
	state.FlavorText = phaseFlavor(StatusPodium, state.CurrentRound)
	logf(r.cfg, "REFEREE: Game over in %s", r.roomID)
	return r.st.Patch(roomPath(r.roomID), map[string]any{
		"gameState":  state,
		"lastActive": now,
	})
}

// nextRound deals a fresh prompt set and match ring and returns to INPUT.
// Submission markers survive as-is; they encode the round they belong to,
// so last round's marks simply stop matching.
func (r *referee) nextRound(room Room) error {
	eligible := eligiblePlayers(room.Players)
	ids := make([]string, len(eligible))
	for i, p := range eligible {
		ids[i] = p.ID
	}

	// The custom library, if any, keeps supplying prompts round after round.
	var library *PromptLibrary
	if code := room.GameState.LibraryCode; code != "" {
		if lib, err := getLibrary(r.st, code); err == nil {
			library = lib
		}
	}

	prompts := promptsForGame(len(ids), room.GameState.GameMode, library)
	matches := distributePrompts(ids, prompts)

	state := room.GameState
	state.Status = StatusInput
	state.CurrentRound++
	state.CurrentMatchIndex = 0
	state.PhaseEndTime = nowMillis() + int64(state.InputTimeLimit)*1000
	state.FlavorText = phaseFlavor(StatusInput, state.CurrentRound)

	fields := map[string]any{
		"prompts":    prompts,
		"matches":    matches,
		"gameState":  state,
		"lastActive": nowMillis(),
	}
	for _, p := range eligible {
		fields[joinPath("players", p.ID, "hasSubmitted")] = false
	}

	logf(r.cfg, "REFEREE: Round %d begins in %s", state.CurrentRound, r.roomID)
	return r.st.Patch(roomPath(r.roomID), fields)
}
