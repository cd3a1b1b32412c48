package diagnostic

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// wireRecord mirrors Record with pointers on the fields whose absence or
// null value marks a record of a different shape.
type wireRecord struct {
	Reason       *string      `json:"reason"`
	PackageID    *string      `json:"package_id"`
	ManifestPath *string      `json:"manifest_path"`
	Target       *Target      `json:"target"`
	Message      *wireMessage `json:"message"`
}

type wireMessage struct {
	Rendered *string   `json:"rendered"`
	Children []Child   `json:"children"`
	Code     *wireCode `json:"code"`
	Level    *string   `json:"level"`
	Message  *string   `json:"message"`
	Spans    []Span    `json:"spans"`
}

type wireCode struct {
	Code        *string `json:"code"`
	Explanation *string `json:"explanation"`
}

// Decode decodes one line of checker output. It reports false for lines
// that are not compiler-message records of the expected shape; such lines
// are ordinary interleaved output and not an error.
func Decode(line []byte) (*Record, bool) {
	if !gjson.ValidBytes(line) {
		return nil, false
	}
	if gjson.GetBytes(line, "reason").String() != ReasonCompilerMessage {
		return nil, false
	}

	var w wireRecord
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, false
	}
	if !w.complete() {
		return nil, false
	}

	return &Record{
		Reason:       *w.Reason,
		PackageID:    *w.PackageID,
		ManifestPath: *w.ManifestPath,
		Target:       *w.Target,
		Message: Message{
			Rendered: *w.Message.Rendered,
			Children: w.Message.Children,
			Code: Code{
				Code:        *w.Message.Code.Code,
				Explanation: *w.Message.Code.Explanation,
			},
			Level:   *w.Message.Level,
			Message: *w.Message.Message,
			Spans:   w.Message.Spans,
		},
	}, true
}

func (w *wireRecord) complete() bool {
	if w.Reason == nil || w.PackageID == nil || w.ManifestPath == nil || w.Target == nil {
		return false
	}
	m := w.Message
	if m == nil || m.Rendered == nil || m.Level == nil || m.Message == nil {
		return false
	}
	return m.Code != nil && m.Code.Code != nil && m.Code.Explanation != nil
}
