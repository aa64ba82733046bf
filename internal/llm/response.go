package llm

import (
	"bufio"
	"bytes"
	"encoding/json"
	"github.com/fightingentropy/bird-eye/internal/types"
	"strings"
)

// deltaEventType is the only stream event that carries output text
const deltaEventType = "response.output_text.delta"

// OutputText reduces a completion response, streamed or not, to its text
func OutputText(contentType string, data []byte) (string, error) {
	var text string
	if isEventStream(contentType, data) {
		text = streamText(data)
	} else {
		var doc interface{}
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", types.NewError(types.KindMalformedResponse, "LLM response was not valid JSON.")
		}
		text = documentText(doc)
	}

	if strings.TrimSpace(text) == "" {
		return "", types.NewError(types.KindMalformedResponse, "LLM response did not contain any text.")
	}
	return text, nil
}

func isEventStream(contentType string, data []byte) bool {
	if strings.Contains(contentType, "text/event-stream") {
		return true
	}
	trimmed := bytes.TrimSpace(data)
	return bytes.HasPrefix(trimmed, []byte("data:")) || bytes.HasPrefix(trimmed, []byte("event:"))
}

type streamEvent struct {
	Type     string      `json:"type"`
	Delta    string      `json:"delta"`
	Response interface{} `json:"response"`
}

// streamText concatenates the output text deltas. When a stream carries no
// deltas the text of its final response object is used instead.
func streamText(data []byte) string {
	var (
		deltas strings.Builder
		final  string
	)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			break
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			continue
		}
		switch {
		case event.Type == deltaEventType:
			deltas.WriteString(event.Delta)
		case event.Response != nil:
			if text := documentText(event.Response); text != "" {
				final = text
			}
		}
	}

	if deltas.Len() > 0 {
		return deltas.String()
	}
	return final
}

// documentText finds the generated text in the response layouts we know of
func documentText(doc interface{}) string {
	m, ok := doc.(map[string]interface{})
	if !ok {
		return ""
	}

	if s, ok := m["output_text"].(string); ok && s != "" {
		return s
	}

	if output, ok := m["output"].([]interface{}); ok {
		var sb strings.Builder
		for _, item := range output {
			entry, _ := item.(map[string]interface{})
			sb.WriteString(contentText(entry["content"]))
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}

	if choices, ok := m["choices"].([]interface{}); ok && len(choices) > 0 {
		choice, _ := choices[0].(map[string]interface{})
		msg, _ := choice["message"].(map[string]interface{})
		if s, ok := msg["content"].(string); ok && s != "" {
			return s
		}
	}

	if s := contentText(m["content"]); s != "" {
		return s
	}

	if nested, ok := m["response"]; ok {
		return documentText(nested)
	}
	return ""
}

func contentText(content interface{}) string {
	if s, ok := content.(string); ok {
		return s
	}
	parts, _ := content.([]interface{})

	var sb strings.Builder
	for _, part := range parts {
		p, _ := part.(map[string]interface{})
		if s, ok := p["text"].(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}
