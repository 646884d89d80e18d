package tts

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys for user-facing text.
const (
	MsgDescribeFailed   = "describe failed"
	MsgAskFailed        = "ask failed"
	MsgInvalidKey       = "invalid key"
	MsgKeyRequired      = "key required"
	MsgEnterKey         = "enter key"
	MsgVoiceUnavailable = "voice unavailable"
	MsgSaved            = "saved"
	MsgQuotaExceeded    = "quota exceeded"
	MsgSaveFailed       = "save failed"
	MsgNothingToSave    = "nothing to save"
	MsgDescribeHeader   = "describe header"
	MsgAskHeader        = "ask header"
	MsgDescribeLoading1 = "describe loading 1"
	MsgDescribeLoading2 = "describe loading 2"
	MsgAskLoading1      = "ask loading 1"
	MsgAskLoading2      = "ask loading 2"
	MsgStateIdle        = "state idle"
	MsgStateLoading     = "state loading"
	MsgStatePlaying     = "state playing"
	MsgStatePaused      = "state paused"
	MsgStateDisabled    = "state disabled"
	MsgShared           = "shared %s"
)

var supported = []language.Tag{language.English, language.Korean}

var matcher = language.NewMatcher(supported)

var catalog = map[string][2]string{
	MsgDescribeFailed:   {"Something went wrong while describing the image. Check your network connection and try again.", "이미지 해설 중 오류가 발생했습니다. 네트워크 연결을 확인하고 다시 시도해 주세요."},
	MsgAskFailed:        {"Something went wrong while answering. Check your network connection and try again.", "답변 생성 중 오류가 발생했습니다. 네트워크 연결을 확인하고 다시 시도해 주세요."},
	MsgInvalidKey:       {"The API key is not valid. Check it and enter it again.", "API 키가 올바르지 않습니다. 확인 후 다시 입력해주세요."},
	MsgKeyRequired:      {"Set an API key first.", "API 키를 먼저 설정해주세요."},
	MsgEnterKey:         {"Enter your API key: ", "API 키를 입력해주세요: "},
	MsgVoiceUnavailable: {"Audio is unavailable. The text will keep appearing.", "음성을 재생할 수 없어 텍스트만 표시합니다."},
	MsgSaved:            {"Saved to the archive.", "보관함에 저장되었습니다."},
	MsgQuotaExceeded:    {"Not enough storage space to complete the operation.", "저장 공간이 부족하여 작업을 완료할 수 없습니다."},
	MsgSaveFailed:       {"Saving or deleting failed for an unknown reason.", "알 수 없는 오류로 저장/삭제에 실패했습니다."},
	MsgNothingToSave:    {"Only finished image descriptions can be saved.", "완료된 이미지 해설만 저장할 수 있습니다."},
	MsgDescribeHeader:   {"Preparing the narration...", "해설 준비 중..."},
	MsgAskHeader:        {"Preparing the answer...", "답변 준비 중..."},
	MsgDescribeLoading1: {"Looking for the story in your photo...", "사진 속 이야기를 찾아내고 있어요..."},
	MsgDescribeLoading2: {"A good story is on its way!", "곧 재미있는 이야기를 들려드릴게요!"},
	MsgAskLoading1:      {"Working out what you asked...", "어떤 질문인지 살펴보고 있어요..."},
	MsgAskLoading2:      {"Preparing a friendly answer!", "친절한 답변을 준비하고 있어요!"},
	MsgStateIdle:        {"Play audio", "오디오 재생"},
	MsgStateLoading:     {"Loading audio", "오디오 로딩 중"},
	MsgStatePlaying:     {"Pause audio", "오디오 일시정지"},
	MsgStatePaused:      {"Resume audio", "오디오 재생"},
	MsgStateDisabled:    {"Audio unavailable", "오디오 재생 불가"},
	MsgShared:           {"Guidebook shared as %s", "가이드북이 %s(으)로 공유되었습니다"},
}

func init() {
	for key, text := range catalog {
		_ = message.SetString(language.English, key, text[0])
		_ = message.SetString(language.Korean, key, text[1])
	}
}

// NewPrinter returns a printer for the closest supported language to lang.
// Unknown or empty tags fall back to English.
func NewPrinter(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		return message.NewPrinter(language.English)
	}
	_, i, _ := matcher.Match(tag)
	return message.NewPrinter(supported[i])
}

// LoadingMessages returns the rotating messages shown while a session of
// the given kind waits for its first sentence.
func LoadingMessages(p *message.Printer, kind SessionKind) []string {
	if kind == SessionAsk {
		return []string{p.Sprintf(MsgAskLoading1), p.Sprintf(MsgAskLoading2)}
	}
	return []string{p.Sprintf(MsgDescribeLoading1), p.Sprintf(MsgDescribeLoading2)}
}

// StateLabel returns the label for the play/pause control in state s.
func StateLabel(p *message.Printer, s StateType) string {
	switch s {
	case StateLoading:
		return p.Sprintf(MsgStateLoading)
	case StatePlaying:
		return p.Sprintf(MsgStatePlaying)
	case StatePaused:
		return p.Sprintf(MsgStatePaused)
	case StateDisabled:
		return p.Sprintf(MsgStateDisabled)
	default:
		return p.Sprintf(MsgStateIdle)
	}
}

// FailureMessage returns the message shown in place of the transcript when
// a session of the given kind fails with err.
func FailureMessage(p *message.Printer, kind SessionKind, err error) string {
	switch {
	case errors.Is(err, ErrNotInitialized):
		return p.Sprintf(MsgKeyRequired)
	case IsCredentialError(err):
		return p.Sprintf(MsgInvalidKey)
	}
	if kind == SessionAsk {
		return p.Sprintf(MsgAskFailed)
	}
	return p.Sprintf(MsgDescribeFailed)
}
