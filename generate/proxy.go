package generate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/dgnsrekt/docent/tts"
)

// ProxyRequest is the body POSTed to a docent server.
type ProxyRequest struct {
	Prompt            string `json:"prompt,omitempty"`
	Base64Image       string `json:"base64Image,omitempty"`
	MIMEType          string `json:"mimeType,omitempty"`
	SystemInstruction string `json:"systemInstruction,omitempty"`
}

// Event is one server-sent event from the generate endpoint.
type Event struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// ErrUpstream wraps failures the server reports inside the stream.
var ErrUpstream = errors.New("upstream generation failed")

// HTTPError is returned when the server answers with a non-200 status.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap makes a 401 match tts.ErrInvalidAPIKey.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return tts.ErrInvalidAPIKey
	}
	return nil
}

// Proxy streams from a docent server, which holds the API key.
type Proxy struct {
	url    string
	client *http.Client
}

// NewProxy creates a backend for the generate endpoint at url.
func NewProxy(url string, client *http.Client) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	return &Proxy{url: url, client: client}
}

// Stream implements Backend.
func (p *Proxy) Stream(ctx context.Context, req Request) (tts.Stream, error) {
	body := ProxyRequest{
		Prompt:            req.Prompt,
		SystemInstruction: req.SystemInstruction,
	}
	if req.Image != nil {
		body.Base64Image = base64.StdEncoding.EncodeToString(req.Image.Data)
		body.MIMEType = req.Image.MIMEType
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: errorMessage(msg)}
	}

	return func(yield func(tts.Chunk, error) bool) {
		defer resp.Body.Close()
		for ev, err := range ReadEvents(resp.Body) {
			switch {
			case err != nil:
				yield(tts.Chunk{}, err)
				return
			case ev.Error != "":
				yield(tts.Chunk{}, fmt.Errorf("%w: %s", ErrUpstream, ev.Error))
				return
			}
			if !yield(tts.Chunk{Text: ev.Text}, nil) {
				return
			}
		}
	}, nil
}

// errorMessage extracts {"error": "..."} from a response body, or returns
// it trimmed.
func errorMessage(body []byte) string {
	var ev Event
	if json.Unmarshal(body, &ev) == nil && ev.Error != "" {
		return ev.Error
	}
	return strings.TrimSpace(string(body))
}

// ReadEvents parses "data: <json>" lines from an event stream. Other
// fields and comments are ignored.
func ReadEvents(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			payload, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			payload = strings.TrimSpace(payload)
			if payload == "" {
				continue
			}

			var ev Event
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				yield(Event{}, fmt.Errorf("malformed event %q: %w", payload, err))
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Event{}, err)
		}
	}
}

// WriteEvent writes ev as one server-sent event.
func WriteEvent(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
