// Package auth covers local credential handling and browser session identity.
//
// Passwords are hashed with bcrypt and checked with constant-time comparison.
// The browser never sees Spotify tokens; it carries a signed cookie holding
// only the server-side session ID, minted and verified by [CookieCodec].
package auth
