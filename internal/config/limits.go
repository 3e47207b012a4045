package config

const (
	// MaxMindMapTitleLength is the maximum length for mind map titles.
	// Limited to 200 to fit in VARCHAR(200) and keep titles displayable.
	MaxMindMapTitleLength = 200

	// MaxNodeTitleLength is the maximum length for node titles.
	// Same bound as mind map titles for consistency.
	MaxNodeTitleLength = 200

	// MaxInstructionLength bounds the free-text instruction a caller may
	// attach to note generation. Longer instructions get truncated into
	// the prompt anyway by the provider's context window.
	MaxInstructionLength = 2000

	// MinGeneratedChildren and MaxGeneratedChildren bound how many
	// subtopics the model may return for one expansion. The model picks
	// the count within this range.
	MinGeneratedChildren = 3
	MaxGeneratedChildren = 10

	// NoteStreamBufferTokens is how many stream tokens are accumulated
	// before a partial note is flushed to the notification relay.
	NoteStreamBufferTokens = 3

	// MaxConcurrentNoteStreams bounds the background worker pool for
	// note generation.
	MaxConcurrentNoteStreams = 10

	// DefaultNoteWordCount is the target length used in the default
	// note-generation instruction.
	DefaultNoteWordCount = 300
)
