// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package blockchain provides vote integrity stamping. The default
// HashStamper computes a keccak-256 hash over the packed vote tuple and
// never fails; alternative Stamper implementations can anchor votes to a
// real chain without touching the submission pipeline.
package blockchain
