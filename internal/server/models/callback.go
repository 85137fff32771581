package models

import (
	"encoding/json"
	"time"
)

// CallbackStatus is the document state reported by the editor.
type CallbackStatus int

const (
	// StatusKeyNotFound: the editor has no document with this key.
	StatusKeyNotFound    CallbackStatus = 0
	StatusEditing        CallbackStatus = 1
	StatusMustSave       CallbackStatus = 2
	StatusCorrupted      CallbackStatus = 3
	StatusClosed         CallbackStatus = 4
	StatusMustForceSave  CallbackStatus = 6
	StatusForceSaveError CallbackStatus = 7
)

// IsSave reports whether the editor expects the document to be persisted.
func (s CallbackStatus) IsSave() bool {
	return s == StatusMustSave || s == StatusMustForceSave
}

// EditorAction is a user connect/disconnect notice carried by a callback.
type EditorAction struct {
	Type   int    `json:"type"`
	UserID string `json:"userid"`
}

type CallbackHistory struct {
	ServerVersion string          `json:"serverVersion,omitempty"`
	Changes       json.RawMessage `json:"changes,omitempty"`
}

// CallbackEvent is the body the editor posts to a document's callback URL.
// Status is a pointer so a missing field can be told apart from 0.
type CallbackEvent struct {
	Key           string           `json:"key"`
	Status        *CallbackStatus  `json:"status"`
	URL           string           `json:"url,omitempty"`
	ChangesURL    string           `json:"changesurl,omitempty"`
	History       *CallbackHistory `json:"history,omitempty"`
	LastSave      string           `json:"lastsave,omitempty"`
	NotModified   bool             `json:"notmodified,omitempty"`
	Users         []string         `json:"users,omitempty"`
	Actions       []EditorAction   `json:"actions,omitempty"`
	ForceSaveType *int             `json:"forcesavetype,omitempty"`
	FileType      string           `json:"filetype,omitempty"`
	Token         string           `json:"token,omitempty"`
}

// CallbackOutcome is what the reconciler did with one callback.
type CallbackOutcome string

const (
	OutcomeIgnored  CallbackOutcome = "ignored"
	OutcomeSaved    CallbackOutcome = "saved"
	OutcomeFailed   CallbackOutcome = "failed"
	OutcomeRejected CallbackOutcome = "rejected"
)

// CallbackRecord is one row of the callback journal.
type CallbackRecord struct {
	ID           string          `json:"id"`
	DocumentName string          `json:"documentName"`
	Key          string          `json:"key"`
	Status       int             `json:"status"`
	Outcome      CallbackOutcome `json:"outcome"`
	Error        string          `json:"error,omitempty"`
	Users        []string        `json:"users,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}
