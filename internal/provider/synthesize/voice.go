package synthesize

// DefaultVoice is used for languages without a dedicated voice mapping.
const DefaultVoice = "alloy"

// voiceMap fixes one synthesis voice per supported language tag.
var voiceMap = map[string]string{
	"es": "nova",
	"en": "alloy",
	"fr": "shimmer",
	"de": "onyx",
	"pt": "nova",
	"it": "shimmer",
	"zh": "alloy",
	"ja": "echo",
	"ko": "fable",
	"ar": "onyx",
}

// VoiceFor resolves the synthesis voice for a language tag.
func VoiceFor(language string) string {
	if voice, ok := voiceMap[language]; ok {
		return voice
	}
	return DefaultVoice
}
