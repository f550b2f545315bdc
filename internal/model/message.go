// Package model defines the core domain models used throughout the application.
package model

import "time"

// RawMessage is a single decoded notification mail as delivered by the
// inbox connector. The connector owns decoding and markup stripping;
// everything here is plain text.
type RawMessage struct {
	ReceivedAt time.Time
	ID         string // provider message id, used for dedupe
	Sender     string
	Subject    string
	Body       string
	Headers    map[string]string
}

// Header returns a header value, tolerating a nil header map.
func (m *RawMessage) Header(name string) string {
	if m.Headers == nil {
		return ""
	}
	return m.Headers[name]
}
