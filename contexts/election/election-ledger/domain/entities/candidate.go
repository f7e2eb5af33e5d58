package entities

import "time"

// Candidate is never hard-deleted; removal only clears Exists so ids stay
// stable and historical counts survive.
type Candidate struct {
	ID        int64
	Name      string
	VoteCount int64
	Exists    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Votable reports whether the candidate may receive votes.
func (c Candidate) Votable() bool {
	return c.ID > 0 && c.Exists
}

// VoterRecord marks that Address voted in SessionID.
type VoterRecord struct {
	Address     string
	SessionID   int64
	CandidateID int64
	VotedAt     time.Time
}

// Results is the read model used for tallies.
type Results struct {
	SessionID        int64
	CandidatesCount  int64
	ActiveCandidates int64
	TotalVotes       int64
	Candidates       []Candidate
}
