// Package models defines domain entities and persistence interfaces for the Customify web application.
//
// Persistent entities are database-backed models with full lifecycle management:
//   - [User] : Registered accounts with bcrypt password hashes
//   - [Session] : Server-side sessions owning a Spotify OAuth token pair
//
// All persistent entities implement the [Model] interface providing ID generation, timestamps, and validation.
// The [Repository] interface defines standard CRUD operations for database access.
//
// Transient view models mapped from Spotify API responses (tracks, artists, profiles) live in the
// services package alongside the client that produces them; they have no lifecycle beyond a request.
package models
