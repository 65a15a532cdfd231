// Package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations and sequence generation. Users support soft
// deletes; sessions are destroyed outright on logout since they own the
// Spotify token pair.
package repositories
