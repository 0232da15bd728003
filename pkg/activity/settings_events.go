package activity

import (
	"strings"
	"time"
)

// Verbs emitted by the settings package.
const (
	VerbScopePublished    = "settings.scope.published"
	VerbDirectivesPlanned = "settings.directives.planned"
	VerbImportFailed      = "settings.import.failed"
)

// Object types used by the settings events.
const (
	ObjectScope  = "settings.scope"
	ObjectPlan   = "settings.plan"
	ObjectImport = "settings.import"
)

// Identity carries the optional actor fields shared by every settings event.
type Identity struct {
	ActorID  string
	UserID   string
	TenantID string
	Channel  string
}

// ScopeEventInput describes a published scope.
type ScopeEventInput struct {
	Identity
	ScopeID    string
	ScopeName  string
	ParentID   string
	LocalCount int
	Metadata   map[string]any
	OccurredAt time.Time
}

// DirectivesEventInput describes a computed directive plan.
type DirectivesEventInput struct {
	Identity
	ScopeID    string
	ScopeName  string
	Imports    int
	Includes   int
	Lazy       bool
	Metadata   map[string]any
	OccurredAt time.Time
}

// ImportEventInput describes an auto-import that failed to initialise.
type ImportEventInput struct {
	Identity
	ScopeID    string
	Alias      string
	Template   string
	Lazy       bool
	Err        error
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildScopePublishedEvent constructs the event for a newly built scope.
func BuildScopePublishedEvent(input ScopeEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["scope_name"] = input.ScopeName
	metadata["local_settings"] = input.LocalCount
	if parent := strings.TrimSpace(input.ParentID); parent != "" {
		metadata["parent_id"] = parent
	}
	return newEvent(VerbScopePublished, ObjectScope, input.ScopeID, input.Identity, metadata, input.OccurredAt)
}

// BuildDirectivesPlannedEvent constructs the event for a directive plan.
func BuildDirectivesPlannedEvent(input DirectivesEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["scope_name"] = input.ScopeName
	metadata["imports"] = input.Imports
	metadata["includes"] = input.Includes
	metadata["lazy_imports"] = input.Lazy
	return newEvent(VerbDirectivesPlanned, ObjectPlan, input.ScopeID, input.Identity, metadata, input.OccurredAt)
}

// BuildImportFailedEvent constructs the event for a failed auto-import. The
// object ID is the alias, falling back to the template name.
func BuildImportFailedEvent(input ImportEventInput) Event {
	metadata := ensureMetadata(cloneMap(input.Metadata))
	metadata["template"] = input.Template
	metadata["lazy"] = input.Lazy
	if input.ScopeID != "" {
		metadata["scope_id"] = input.ScopeID
	}
	if input.Err != nil {
		metadata["error"] = input.Err.Error()
	}
	objectID := strings.TrimSpace(input.Alias)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Template)
	}
	return newEvent(VerbImportFailed, ObjectImport, objectID, input.Identity, metadata, input.OccurredAt)
}

func newEvent(verb, objectType, objectID string, id Identity, metadata map[string]any, at time.Time) Event {
	objectID = strings.TrimSpace(objectID)
	if objectID == "" {
		objectID = objectType
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(id.ActorID),
		UserID:     strings.TrimSpace(id.UserID),
		TenantID:   strings.TrimSpace(id.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(id.Channel),
		Metadata:   metadata,
		OccurredAt: at,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
