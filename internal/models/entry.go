package models

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type EntryType string

const (
	EntryImage EntryType = "image"
	EntryText  EntryType = "text"
)

// ChatEntry is one bubble in the transcript.
type ChatEntry struct {
	Role  Role      `json:"role"`
	Type  EntryType `json:"type"`
	Image string    `json:"image,omitempty"`
	Lines []string  `json:"lines,omitempty"`
	Error bool      `json:"error,omitempty"`
}

// ImageEntry is the user side of an exchange, referencing an uploaded display name.
func ImageEntry(displayName string) ChatEntry {
	return ChatEntry{Role: RoleUser, Type: EntryImage, Image: displayName}
}

// AssistantEntry splits text into display lines. failed marks an error reply.
func AssistantEntry(text string, failed bool) ChatEntry {
	return ChatEntry{Role: RoleAssistant, Type: EntryText, Lines: SplitLines(text), Error: failed}
}

// SplitLines breaks text on \n, \r\n and \r. A trailing line break does not
// produce an empty final line.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
