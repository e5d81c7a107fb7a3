/*
Package authsdk provides a client SDK for the Trading Intelligence authentication service.

# Overview

The service is invite-gated: accounts are created only by redeeming an invite
code minted by an administrator. Authentication returns a short-lived JWT
access token and an opaque, single-use refresh token.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: Provides unauthenticated operations and creates authenticated sessions
  - Session: Provides authenticated operations with automatic token refresh

Create an SDKClient to interact with public endpoints:

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Check service health
	health, err := client.Health(ctx)

	// Bootstrap the service (one-time setup)
	res, err := client.Bootstrap(ctx, token, authsdk.BootstrapRequest{
		AdminEmail:    "admin@example.com",
		AdminPassword: "Adm1n!pass",
	})

	// Register with an invite code, or log in
	session, err := client.RegisterSession(ctx, authsdk.RegisterRequest{...})
	session, err := client.AuthenticateWithPassword(ctx, email, password)

Use a Session for authenticated operations. Sessions refresh the access
token shortly before it expires:

	me, err := session.Me(ctx)

	// Administrators only
	invite, err := session.CreateInvite(ctx, authsdk.InviteRequest{Email: "friend@example.com"})
	list, err := session.ListInvites(ctx, authsdk.ListInvitesOptions{IncludeUsed: true})

# Refresh Tokens

Refresh tokens rotate: every successful refresh invalidates the presented
token and returns a new one. A Session serializes refreshes so concurrent
calls never present the same refresh token twice. Logout and
ChangePassword revoke every session of the account, and the Session
returns ErrSessionClosed afterwards.

# Errors

Non-2xx responses are returned as *APIError carrying the status code and
the service's message:

	_, err := client.Login(ctx, email, "wrong")
	if authsdk.IsUnauthorized(err) {
		// Invalid email or password
	}
*/
package authsdk
