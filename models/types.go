package models

// Election status constants
const (
	ElectionDraft  = "draft"
	ElectionActive = "active"
	ElectionClosed = "closed"
)

// Position ballot types
const (
	PositionSingle = "single"
	PositionRanked = "ranked"
)

// Queue entry status constants
const (
	QueuePending = "pending"
	QueueFailed  = "failed"
)

// Account roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// Request types

type SubmitVoteRequest struct {
	ClassID     string `json:"classId"`
	StudentID   string `json:"studentId"`
	PositionID  string `json:"positionId"`
	CandidateID string `json:"candidateId"`
	RankedOrder *int   `json:"rankedOrder,omitempty"`
}

type CreateClassRequest struct {
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

type CreateStudentRequest struct {
	ClassID string `json:"classId"`
	Name    string `json:"name"`
	PIN     string `json:"pin,omitempty"`
}

type BulkStudentEntry struct {
	Name string `json:"name"`
}

type BulkStudentsRequest struct {
	ClassID  string             `json:"classId"`
	Students []BulkStudentEntry `json:"students"`
}

type UpdateStudentRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin,omitempty"`
}

type VerifyPINRequest struct {
	PIN string `json:"pin"`
}

type CreateElectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Status      string `json:"status,omitempty"`
}

type AddPositionRequest struct {
	Title string `json:"title"`
	Type  string `json:"type,omitempty"`
}

type AddCandidateRequest struct {
	Name      string `json:"name"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	Profile   string `json:"profile,omitempty"`
	Manifesto string `json:"manifesto,omitempty"`
	Motto     string `json:"motto,omitempty"`
	ClassID   string `json:"classId,omitempty"`
}

type UpdateCandidateRequest struct {
	Name      string `json:"name"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	Profile   string `json:"profile,omitempty"`
	Manifesto string `json:"manifesto,omitempty"`
	Motto     string `json:"motto,omitempty"`
	ClassID   string `json:"classId,omitempty"`
	Approved  *bool  `json:"approved,omitempty"`
}

// Response types

type SubmitVoteResponse struct {
	Success         bool   `json:"success"`
	VoteID          string `json:"voteId"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     int64  `json:"blockNumber"`
}

// QueuedVoteResponse signals that a validated vote could not be committed
// and was parked for retry instead of being dropped.
type QueuedVoteResponse struct {
	Error   string `json:"error"`
	Queued  bool   `json:"queued"`
	QueueID string `json:"queueId"`
}

type VoteQueueResponse struct {
	Queue []PendingVote `json:"queue"`
}

type RetryOutcome struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Retry  bool   `json:"retry,omitempty"`
	Error  string `json:"error,omitempty"`
}

type RetryQueueResponse struct {
	Processed int            `json:"processed"`
	Results   []RetryOutcome `json:"results"`
}

type VerifyPINResponse struct {
	Verified bool `json:"verified"`
}

type StudentsResponse struct {
	Students []Student `json:"students"`
}

type BulkStudentsResponse struct {
	Count    int       `json:"count"`
	Students []Student `json:"students"`
}

type ClassesResponse struct {
	Classes []Class `json:"classes"`
}

type ElectionsResponse struct {
	Elections []Election `json:"elections"`
}

type ClassResultsResponse struct {
	Results map[string]PositionResult `json:"results"`
}

type PositionResult struct {
	Position   PositionSummary  `json:"position"`
	Candidates []CandidateTally `json:"candidates"`
	TotalVotes int              `json:"totalVotes"`
}

type PositionSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	ElectionName string `json:"electionName"`
}

type CandidateTally struct {
	CandidateID   string `json:"candidateId"`
	CandidateName string `json:"candidateName"`
	VoteCount     int    `json:"voteCount"`
	UniqueVoters  int    `json:"uniqueVoters"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Domain types

type Class struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Grade      string `json:"grade"`
	TeacherID  string `json:"teacherId"`
	VotingOpen bool   `json:"votingOpen"`
}

type Student struct {
	ID       string `json:"id"`
	ClassID  string `json:"classId"`
	Name     string `json:"name"`
	HasVoted bool   `json:"hasVoted"`
	PINHash  string `json:"-"` // Never expose in JSON
}

type Election struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   string     `json:"startDate"`
	EndDate     string     `json:"endDate"`
	Status      string     `json:"status"`
	Positions   []Position `json:"positions,omitempty"`
}

type Position struct {
	ID         string      `json:"id"`
	ElectionID string      `json:"electionId"`
	Title      string      `json:"title"`
	Type       string      `json:"type"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

type Candidate struct {
	ID         string `json:"id"`
	PositionID string `json:"positionId"`
	Name       string `json:"name"`
	PhotoURL   string `json:"photoUrl,omitempty"`
	Profile    string `json:"profile,omitempty"`
	Manifesto  string `json:"manifesto,omitempty"`
	Motto      string `json:"motto,omitempty"`
	ClassID    string `json:"classId,omitempty"`
	Approved   bool   `json:"approved"`
}

type Vote struct {
	ID              string `json:"id"`
	ClassID         string `json:"classId"`
	StudentID       string `json:"studentId"`
	PositionID      string `json:"positionId"`
	CandidateID     string `json:"candidateId"`
	Timestamp       int64  `json:"timestamp"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     int64  `json:"blockNumber"`
	RankedOrder     *int   `json:"rankedOrder,omitempty"`
}

// PendingVote is a staging record for a vote that could not be committed
// immediately. Rows are created by the submission pipeline and consumed by
// the retry worker; a row reaching QueueFailed is terminal and kept for
// operator audit.
type PendingVote struct {
	ID          string `json:"id"`
	ClassID     string `json:"classId"`
	StudentID   string `json:"studentId"`
	PositionID  string `json:"positionId"`
	CandidateID string `json:"candidateId"`
	Timestamp   int64  `json:"timestamp"`
	RetryCount  int    `json:"retryCount"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"createdAt"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
