package models

import "time"

// Election lifecycle phases, derived from time windows and the admin override.
const (
	PhaseScheduled        = "scheduled"
	PhaseRegistrationOpen = "registration_open"
	PhaseApplicationOpen  = "application_open"
	PhaseVotingOpen       = "voting_open"
	PhasePaused           = "paused"
	PhaseCompleted        = "completed"
	PhaseArchived         = "archived"
)

// Administrative override values
const (
	OverrideNone      = "none"
	OverridePaused    = "paused"
	OverrideCompleted = "completed"
	OverrideArchived  = "archived"
)

// Application review statuses
const (
	ApplicationPending  = "pending"
	ApplicationApproved = "approved"
	ApplicationRejected = "rejected"
)

// Alert types and severities
const (
	AlertDuplicateSource = "duplicate_source"
	AlertRapidRate       = "rapid_rate"
	AlertPatternAnomaly  = "pattern_anomaly"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Request types

type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type CreatePositionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Seats       int    `json:"seats"`
}

type CreateElectionRequest struct {
	Title        string                  `json:"title"`
	Organization string                  `json:"organization"`
	Registration TimeWindow              `json:"registration"`
	Application  TimeWindow              `json:"application"`
	Voting       TimeWindow              `json:"voting"`
	Positions    []CreatePositionRequest `json:"positions"`
}

type UpdateWindowsRequest struct {
	Registration TimeWindow `json:"registration"`
	Application  TimeWindow `json:"application"`
	Voting       TimeWindow `json:"voting"`
}

type SetOverrideRequest struct {
	Override string `json:"override"`
}

type RegisterVoterRequest struct {
	VoterID     string `json:"voter_id"`
	DisplayName string `json:"display_name"`
}

type SubmitApplicationRequest struct {
	PositionID string `json:"position_id"`
	Statement  string `json:"statement"`
	Contact    string `json:"contact"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason"`
}

type CastVoteRequest struct {
	PositionID  string `json:"position_id"`
	CandidateID string `json:"candidate_id"`
}

type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string   `json:"election_id"`
	Positions  []string `json:"position_ids"`
}

type RegisterVoterResponse struct {
	VoterToken string `json:"voter_token"`
}

type SubmitApplicationResponse struct {
	ApplicationID string `json:"application_id"`
}

type CastVoteResponse struct {
	Receipt string    `json:"receipt"`
	CastAt  time.Time `json:"cast_at"`
}

type AdminLoginResponse struct {
	Token string `json:"token"`
}

type VerifyReceiptResponse struct {
	Found         bool       `json:"found"`
	ElectionTitle string     `json:"election_title,omitempty"`
	CastAt        *time.Time `json:"cast_at,omitempty"`
}

// Domain types

type Election struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Organization      string    `json:"organization"`
	RegistrationStart time.Time `json:"registration_start"`
	RegistrationEnd   time.Time `json:"registration_end"`
	ApplicationStart  time.Time `json:"application_start"`
	ApplicationEnd    time.Time `json:"application_end"`
	VotingStart       time.Time `json:"voting_start"`
	VotingEnd         time.Time `json:"voting_end"`
	Override          string    `json:"override"`
	CreatedAt         time.Time `json:"created_at"`
}

type Position struct {
	ID          string `json:"id"`
	ElectionID  string `json:"election_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Seats       int    `json:"seats"`
}

type ElectionDetail struct {
	Election  Election   `json:"election"`
	Positions []Position `json:"positions"`
	Phase     string     `json:"phase"`
	PhaseHint string     `json:"phase_hint,omitempty"`
}

type Application struct {
	ID              string     `json:"id"`
	ElectionID      string     `json:"election_id"`
	PositionID      string     `json:"position_id"`
	VoterID         string     `json:"voter_id"`
	Statement       string     `json:"statement"`
	Contact         string     `json:"contact"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
}

type Candidate struct {
	ID         string    `json:"id"`
	ElectionID string    `json:"election_id"`
	PositionID string    `json:"position_id"`
	VoterID    string    `json:"-"` // Applicant identity is not public
	Name       string    `json:"name"`
	Statement  string    `json:"statement"`
	CreatedAt  time.Time `json:"created_at"`
}

type Vote struct {
	ID          string    `json:"id"`
	ElectionID  string    `json:"election_id"`
	PositionID  string    `json:"position_id"`
	CandidateID string    `json:"-"` // Never expose the selection
	VoterID     string    `json:"-"` // Never expose the voter
	ReceiptCode string    `json:"-"`
	SourceHash  string    `json:"-"`
	CastAt      time.Time `json:"cast_at"`
}

type Alert struct {
	ID         string     `json:"id"`
	ElectionID string     `json:"election_id"`
	Type       string     `json:"type"`
	Severity   string     `json:"severity"`
	VoterID    string     `json:"voter_id,omitempty"`
	VoteID     string     `json:"vote_id,omitempty"`
	Detail     string     `json:"detail"`
	Resolved   bool       `json:"resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// AdmissionEvent is published for every successfully admitted vote and
// consumed by the anomaly monitor. It never carries the selection.
type AdmissionEvent struct {
	ElectionID string
	VoteID     string
	VoterID    string
	SourceHash string
	CastAt     time.Time
}

// Tally result types (derived, never persisted)

type CandidateResult struct {
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"name"`
	Votes       int     `json:"votes"`
	Percentage  float64 `json:"percentage"`
	Rank        int     `json:"rank"` // 1-indexed; ties share a rank
	Winner      bool    `json:"winner"`
}

type PositionResult struct {
	PositionID string            `json:"position_id"`
	Title      string            `json:"title"`
	TotalVotes int               `json:"total_votes"`
	Candidates []CandidateResult `json:"candidates"`
}

type TurnoutResult struct {
	ElectionID string  `json:"election_id"`
	Voted      int     `json:"voted"`
	Eligible   int     `json:"eligible"`
	Ratio      float64 `json:"ratio"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
