package pipeline

import "github.com/linnemanlabs/sage/internal/safety"

// Source tags where a response body came from.
type Source string

const (
	// SourceInternal means curated content from the resource store.
	SourceInternal Source = "internal"

	// SourceInternet means externally generated content.
	SourceInternet Source = "internet"

	// SourceSystem means a fixed policy message, e.g. the exclusion redirect.
	SourceSystem Source = "system"
)

// Caller roles. Unrecognized roles are treated as RoleStudent.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleParent  = "parent"
	RoleAdmin   = "admin"
)

// Request is one message to triage. The pipeline assumes the calling layer
// has already validated the message as non-empty and length-bounded.
type Request struct {
	Message        string
	Role           string
	ConversationID int64
}

// Response is the pipeline's sole output contract. Persistence of the
// exchange is the caller's responsibility.
type Response struct {
	Text        string
	Source      Source
	HasRisk     bool
	RiskKind    safety.RiskKind
	RiskWarning string
}
