package speech

import "context"

// Transcriber converts raw audio bytes into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer converts text plus a voice selector into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Voice describes one synthesized voice offered to clients.
type Voice struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Model       string `json:"model"`
}

const (
	VoiceFemale = "female"
	VoiceMale   = "male"

	femaleModel = "aura-asteria-en"
	maleModel   = "aura-orion-en"
)

// ModelForVoice maps the two-valued voice selector to a provider voice
// model. Unrecognized selectors degrade to the female default.
func ModelForVoice(voice string) string {
	if voice == VoiceMale {
		return maleModel
	}
	return femaleModel
}

// AvailableVoices lists the selectable voices keyed by selector.
func AvailableVoices() map[string]Voice {
	return map[string]Voice{
		VoiceFemale: {Name: "Asteria", Description: "Professional female voice", Model: femaleModel},
		VoiceMale:   {Name: "Orion", Description: "Professional male voice", Model: maleModel},
	}
}
