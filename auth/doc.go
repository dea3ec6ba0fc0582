// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin keys and voter identity tokens.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(contextID, salt)
	err := auth.ValidateAdminKey(contextID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same context ID and salt always produce the same key. This allows
validation without storing the key in the database.

# Voter Tokens

The voting engine trusts the voter ID it is given, so the HTTP layer only
accepts voter IDs wrapped in a signed token:

	token := auth.IssueVoterToken("user-123", salt)
	voterID, err := auth.VoterFromToken(token, salt)

Format: base64url(voter_id) "." base64url(HMAC-SHA256("voter:" + voter_id)).
The portal's login flow issues the token with the shared VOTER_TOKEN_SALT;
this service never creates voter identities itself.
*/
package auth
