package recommend

import (
	"fmt"
	"strconv"

	"github.com/desertthunder/customify/internal/shared"
)

// TunableParams holds the optional audio-feature constraints from the
// customization form. Each value only applies when its Use flag is set.
type TunableParams struct {
	UseAcousticness     bool
	Acousticness        float64
	UseDanceability     bool
	Danceability        float64
	UseEnergy           bool
	Energy              float64
	UseInstrumentalness bool
	Instrumentalness    float64
	UseLiveness         bool
	Liveness            float64
	UseLoudness         bool
	Loudness            float64
	UseSpeechiness      bool
	Speechiness         float64
	UseTempo            bool
	Tempo               float64
	UseValence          bool
	Valence             float64
	UsePopularity       bool
	Popularity          int
}

type paramSpec struct {
	key     string
	enabled bool
	value   float64
	min     float64
	max     float64
}

func (p TunableParams) specs() []paramSpec {
	return []paramSpec{
		{"min_acousticness", p.UseAcousticness, p.Acousticness, 0, 1},
		{"min_danceability", p.UseDanceability, p.Danceability, 0, 1},
		{"min_energy", p.UseEnergy, p.Energy, 0, 1},
		{"min_instrumentalness", p.UseInstrumentalness, p.Instrumentalness, 0, 1},
		{"min_liveness", p.UseLiveness, p.Liveness, 0, 1},
		{"min_loudness", p.UseLoudness, p.Loudness, -60, 0},
		{"min_speechiness", p.UseSpeechiness, p.Speechiness, 0, 1},
		{"min_tempo", p.UseTempo, p.Tempo, 0, 250},
		{"min_valence", p.UseValence, p.Valence, 0, 1},
		{"target_popularity", p.UsePopularity, float64(p.Popularity), 0, 100},
	}
}

// Validate checks every enabled value against its documented range.
func (p TunableParams) Validate() error {
	for _, spec := range p.specs() {
		if !spec.enabled {
			continue
		}
		if spec.value < spec.min || spec.value > spec.max {
			return fmt.Errorf("%w: %s must be between %g and %g", shared.ErrInvalidInput, spec.key, spec.min, spec.max)
		}
	}
	return nil
}

// Encode returns the enabled parameters as query values for the
// recommendations endpoint.
func (p TunableParams) Encode() map[string]string {
	params := make(map[string]string)
	for _, spec := range p.specs() {
		if !spec.enabled {
			continue
		}
		params[spec.key] = strconv.FormatFloat(spec.value, 'f', -1, 64)
	}
	return params
}
