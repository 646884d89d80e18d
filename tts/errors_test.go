package tts

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestClassify tests error classification for the user-facing flows.
func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindUnknown},
		{"plain network error", errors.New("dial tcp: connection refused"), KindTransport},
		{"gemini invalid key", errors.New("Error 400, Message: API key not valid. Please pass a valid API key., Status: INVALID_ARGUMENT"), KindCredentials},
		{"gemini reason", errors.New("reason: API_KEY_INVALID"), KindCredentials},
		{"openai invalid key", errors.New("error, status code: 401, message: Incorrect API key provided"), KindCredentials},
		{"wrapped sentinel", fmt.Errorf("generate: %w", ErrInvalidAPIKey), KindCredentials},
		{"missing key", ErrNotInitialized, KindCredentials},
		{"canceled session", fmt.Errorf("%w: %w", ErrSessionCanceled, context.Canceled), KindCanceled},
		{"context canceled", context.Canceled, KindCanceled},
		{"voice", ErrVoiceUnavailable, KindEngine},
		{"typed engine error", NewError(KindEngine, "speak", errors.New("exit status 1")), KindEngine},
		{"typed error wins over text", NewError(KindTransport, "generate", errors.New("API key not valid")), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// TestNarrationError tests wrapping and formatting.
func TestNarrationError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := NewError(KindEngine, "speak", cause)

	if err.Error() != "speak: exit status 1" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	var ne *NarrationError
	if !errors.As(fmt.Errorf("outer: %w", err), &ne) || ne.Op != "speak" {
		t.Error("errors.As should find the NarrationError")
	}

	bare := &NarrationError{Kind: KindTransport, Op: "generate"}
	if bare.Error() != "generate: transport error" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

// TestFailureMessage tests localized failure messages.
func TestFailureMessage(t *testing.T) {
	tests := []struct {
		lang string
		kind SessionKind
		err  error
		want string
	}{
		{"en", SessionDescribe, errors.New("EOF"), "Something went wrong while describing the image. Check your network connection and try again."},
		{"ko-KR", SessionDescribe, errors.New("EOF"), "이미지 해설 중 오류가 발생했습니다. 네트워크 연결을 확인하고 다시 시도해 주세요."},
		{"ko", SessionAsk, errors.New("EOF"), "답변 생성 중 오류가 발생했습니다. 네트워크 연결을 확인하고 다시 시도해 주세요."},
		{"ko", SessionAsk, errors.New("API key not valid"), "API 키가 올바르지 않습니다. 확인 후 다시 입력해주세요."},
		{"ko", SessionDescribe, ErrNotInitialized, "API 키를 먼저 설정해주세요."},
		{"not a tag!", SessionAsk, ErrNotInitialized, "Set an API key first."},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"/"+tt.kind.String(), func(t *testing.T) {
			got := FailureMessage(NewPrinter(tt.lang), tt.kind, tt.err)
			if got != tt.want {
				t.Errorf("FailureMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestStateLabels tests the play/pause control labels.
func TestStateLabels(t *testing.T) {
	p := NewPrinter("ko")
	tests := map[StateType]string{
		StateIdle:     "오디오 재생",
		StateLoading:  "오디오 로딩 중",
		StatePlaying:  "오디오 일시정지",
		StatePaused:   "오디오 재생",
		StateDisabled: "오디오 재생 불가",
	}
	for state, want := range tests {
		if got := StateLabel(p, state); got != want {
			t.Errorf("StateLabel(%v) = %q, want %q", state, got, want)
		}
	}

	if got := LoadingMessages(p, SessionAsk); len(got) != 2 || got[0] != "어떤 질문인지 살펴보고 있어요..." {
		t.Errorf("LoadingMessages() = %q", got)
	}
	if got := NewPrinter("en").Sprintf(MsgShared, "aB3_x-"); got != "Guidebook shared as aB3_x-" {
		t.Errorf("shared message = %q", got)
	}
}
