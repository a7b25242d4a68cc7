// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - SubmitVoteRequest: classId, studentId, positionId, candidateId, rankedOrder
  - CreateClassRequest / CreateStudentRequest / BulkStudentsRequest
  - CreateElectionRequest / AddPositionRequest / AddCandidateRequest
  - VerifyPINRequest: pin

# Response Types

Types for JSON responses:

  - SubmitVoteResponse: success, voteId, transactionHash, blockNumber
  - QueuedVoteResponse: queued=true plus the queue entry id
  - VoteQueueResponse / RetryQueueResponse: queue visibility and drain outcomes
  - ClassResultsResponse: per-position tallies
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Class, Student, Election, Position, Candidate
  - Vote: a committed ballot choice with its integrity stamp
  - PendingVote: a queued vote awaiting retry

# Constants

Election status:

	ElectionDraft  = "draft"
	ElectionActive = "active"
	ElectionClosed = "closed"

Queue entry status:

	QueuePending = "pending"
	QueueFailed  = "failed"

Account roles:

	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
*/
package models
