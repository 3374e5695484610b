package models

// Attachment is a file attached to an outgoing email
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// EmailMessage is a composed outgoing email
type EmailMessage struct {
	To          string
	ToName      string
	Subject     string
	HTMLBody    string
	TextBody    string
	Attachments []Attachment
}

// DigestRun summarizes one digest job run
type DigestRun struct {
	Subscribers int      `json:"subscribers"`
	Sent        int      `json:"sent"`
	Skipped     int      `json:"skipped"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors,omitempty"`
}
