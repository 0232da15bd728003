package activity

import (
	"context"
	"errors"
	"testing"
)

func TestBuildScopePublishedEvent(t *testing.T) {
	meta := map[string]any{"source": "config.yaml"}
	event := BuildScopePublishedEvent(ScopeEventInput{
		Identity:   Identity{ActorID: " actor ", Channel: " audit "},
		ScopeID:    "scope-1",
		ScopeName:  "tenant",
		ParentID:   "root-1",
		LocalCount: 3,
		Metadata:   meta,
	})

	if event.Verb != VerbScopePublished || event.ObjectType != ObjectScope || event.ObjectID != "scope-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.ActorID != "actor" || event.Channel != "audit" {
		t.Fatalf("expected trimmed identity, got %+v", event)
	}
	if event.Metadata["scope_name"] != "tenant" || event.Metadata["local_settings"] != 3 || event.Metadata["parent_id"] != "root-1" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
	if event.Metadata["source"] != "config.yaml" {
		t.Fatalf("expected caller metadata kept, got %+v", event.Metadata)
	}
	if _, ok := meta["scope_name"]; ok {
		t.Fatalf("expected input metadata untouched")
	}
}

func TestBuildDirectivesPlannedEvent(t *testing.T) {
	event := BuildDirectivesPlannedEvent(DirectivesEventInput{
		ScopeID:   "leaf",
		ScopeName: "request",
		Imports:   2,
		Includes:  1,
		Lazy:      true,
	})
	if event.Verb != VerbDirectivesPlanned || event.ObjectType != ObjectPlan || event.ObjectID != "leaf" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Metadata["imports"] != 2 || event.Metadata["includes"] != 1 || event.Metadata["lazy_imports"] != true {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
}

func TestBuildImportFailedEventFallsBackToTemplate(t *testing.T) {
	event := BuildImportFailedEvent(ImportEventInput{
		Template: "lib/missing.ftl",
		Lazy:     true,
		Err:      errors.New("not found"),
	})
	if event.ObjectID != "lib/missing.ftl" {
		t.Fatalf("expected template as object ID, got %q", event.ObjectID)
	}
	if event.Metadata["error"] != "not found" || event.Metadata["lazy"] != true {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}

	empty := BuildImportFailedEvent(ImportEventInput{})
	if empty.ObjectID != ObjectImport {
		t.Fatalf("expected object type fallback, got %q", empty.ObjectID)
	}
}

func TestVerbFilterForwardsSelectedVerbs(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{VerbFilter{Verbs: []string{VerbImportFailed}, Hook: capture}}

	planned := BuildDirectivesPlannedEvent(DirectivesEventInput{ScopeID: "leaf"})
	failed := BuildImportFailedEvent(ImportEventInput{Alias: "lib"})
	for _, event := range []Event{planned, failed} {
		if err := hooks.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if len(capture.Events) != 1 || capture.Events[0].Verb != VerbImportFailed {
		t.Fatalf("expected only the import failure, got %+v", capture.Events)
	}
}
