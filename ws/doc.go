// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ws provides the real-time fan-out hub for class-scoped events.

Clients connect to GET /ws, receive {type: "connected", clientId}, then
manage subscriptions:

	{"type": "subscribe",   "payload": {"classId": "..."}}
	{"type": "unsubscribe", "payload": {"classId": "..."}}
	{"type": "ping"}

The server pushes events to every subscriber of a class:

	{"type": "vote_submitted", "payload": {...}}

BroadcastToClass is best-effort and non-blocking: no subscribers is a
silent no-op, and messages are dropped for clients that cannot keep up.
A disconnecting client loses all of its subscriptions.
*/
package ws
