package model

// QueueKind tells which shape a queue/mode field arrived in.
type QueueKind int

const (
	QueueNone QueueKind = iota
	QueueText
	QueueObject
)

// QueueRef is the queue field as a tagged union. The v3 schema sends a plain
// string ("competitive"); v4 sends {id, name, mode_type}.
type QueueRef struct {
	Kind     QueueKind `json:"kind"`
	Text     string    `json:"text,omitempty"`
	ID       string    `json:"id,omitempty"`
	Name     string    `json:"name,omitempty"`
	ModeType string    `json:"mode_type,omitempty"`
}

func TextQueue(s string) QueueRef {
	if s == "" {
		return QueueRef{}
	}
	return QueueRef{Kind: QueueText, Text: s}
}

func ObjectQueue(id, name, modeType string) QueueRef {
	if id == "" && name == "" && modeType == "" {
		return QueueRef{}
	}
	return QueueRef{Kind: QueueObject, ID: id, Name: name, ModeType: modeType}
}

// Labels returns every non-empty textual value carried by the reference.
func (q QueueRef) Labels() []string {
	var out []string
	for _, s := range []string{q.Text, q.ID, q.Name, q.ModeType} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// String returns the most specific single label: the id for objects, the text otherwise.
func (q QueueRef) String() string {
	switch q.Kind {
	case QueueText:
		return q.Text
	case QueueObject:
		if q.ID != "" {
			return q.ID
		}
		return q.Name
	default:
		return ""
	}
}
