// Package recommend assembles recommended tracks for a listener.
//
// Two strategies are available. [Assembler.FromTopTracks] walks the album
// catalogs of the artists behind the listener's top tracks and samples unheard
// tracks from them. [Assembler.Customized] runs a seeded recommendation query
// with user-tuned audio-feature parameters. Both are rate limited against the
// provider and degrade to an empty result rather than failing the page.
package recommend
