// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth validates bearer tokens and hashes student PINs.

Token issuance (login, 2FA) lives in the external identity service. This
package covers the server's side of that boundary:

	claims, err := auth.ValidateToken(tokenStr, cfg.AuthSecret)

Claims carry the teacher id, email, name and an explicit role ("admin" or
"teacher"). GenerateToken exists for tooling and tests that need a token
signed with the shared secret.

# Student PINs

Rosters may assign each student an optional ballot PIN, stored only as a
bcrypt hash:

	hash, err := auth.HashPIN("1234")
	ok := auth.CheckPIN("1234", hash)
*/
package auth
