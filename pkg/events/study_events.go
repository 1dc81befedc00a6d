package events

import "fmt"

const (
	TypeMaterialUploaded   = "material.uploaded"
	TypeSessionSynthesized = "study.session_synthesized"
)

// MaterialUploaded is emitted by the upload service once a file has been
// converted to text elsewhere.
type MaterialUploaded struct {
	Title    string
	Text     string
	MimeType string
}

func (m MaterialUploaded) Event() BaseEvent {
	return NewEvent(TypeMaterialUploaded, map[string]interface{}{
		"title":     m.Title,
		"text":      m.Text,
		"mime_type": m.MimeType,
	})
}

func MaterialUploadedFrom(e Event) (MaterialUploaded, error) {
	text := String(e, "text")
	if text == "" {
		return MaterialUploaded{}, fmt.Errorf("%s event has no text", TypeMaterialUploaded)
	}
	return MaterialUploaded{
		Title:    String(e, "title"),
		Text:     text,
		MimeType: String(e, "mime_type"),
	}, nil
}

func SessionSynthesized(sessionID, title string, units int, fallback bool) BaseEvent {
	return NewEvent(TypeSessionSynthesized, map[string]interface{}{
		"session_id": sessionID,
		"title":      title,
		"units":      units,
		"fallback":   fallback,
	})
}
