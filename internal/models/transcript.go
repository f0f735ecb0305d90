package models

// Transcript is the ordered chat history of one browser session.
type Transcript struct {
	Entries []ChatEntry `json:"entries"`
}

func NewTranscript() *Transcript {
	return &Transcript{Entries: []ChatEntry{}}
}

func (t *Transcript) Append(entry ChatEntry) {
	t.Entries = append(t.Entries, entry)
}

// Clear drops every entry.
func (t *Transcript) Clear() {
	t.Entries = []ChatEntry{}
}

func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Entries)
}
