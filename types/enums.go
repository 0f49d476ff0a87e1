package types

type SessionStage string

const (
	StageEmpty         SessionStage = "empty"
	StageVideoReceived SessionStage = "video_received"
	StageAudioReceived SessionStage = "audio_received"
	StageModeSelected  SessionStage = "mode_selected"
	StageProcessing    SessionStage = "processing"
)

type MergeMode string

const (
	ModeReplace MergeMode = "replace"
	ModeMix     MergeMode = "mix"
)

func ParseMergeMode(s string) (MergeMode, bool) {
	switch MergeMode(s) {
	case ModeReplace:
		return ModeReplace, true
	case ModeMix:
		return ModeMix, true
	default:
		return "", false
	}
}

type Tier string

const (
	TierNormal  Tier = "normal"
	TierPremium Tier = "premium"
)

const (
	FileTypeVideo = "video"
	FileTypeAudio = "audio"
)
