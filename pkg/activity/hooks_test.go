package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func scopeEvent(id string) Event {
	return Event{Verb: VerbScopePublished, ObjectType: ObjectScope, ObjectID: id}
}

func TestNormalizeEventDoesNotAliasInput(t *testing.T) {
	meta := map[string]any{"scope_name": "tenant"}
	recipients := []string{" ops ", "audit "}
	in := Event{
		Verb:       " " + VerbScopePublished + " ",
		ObjectType: " " + ObjectScope,
		ObjectID:   " 42 ",
		TenantID:   " t1 ",
		Recipients: recipients,
		Metadata:   meta,
	}

	got := NormalizeEvent(in)

	if got.Verb != VerbScopePublished || got.ObjectType != ObjectScope || got.ObjectID != "42" || got.TenantID != "t1" {
		t.Fatalf("expected trimmed fields, got %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt stamped")
	}
	got.Metadata["scope_name"] = "changed"
	got.Recipients[0] = "changed"
	if meta["scope_name"] != "tenant" || recipients[0] != " ops " {
		t.Fatalf("normalized event must own its metadata and recipients")
	}
}

func TestHooksNotify(t *testing.T) {
	tests := []struct {
		name      string
		event     Event
		failing   int
		wantSeen  int
		wantError bool
	}{
		{name: "invalid event dropped", event: Event{Verb: VerbScopePublished}, wantSeen: 0},
		{name: "delivered", event: scopeEvent("s1"), wantSeen: 1},
		{name: "errors joined", event: scopeEvent("s1"), failing: 2, wantSeen: 1, wantError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture := &CaptureHook{}
			hooks := Hooks{nil, capture}
			for i := 0; i < tt.failing; i++ {
				hooks = append(hooks, HookFunc(func(context.Context, Event) error { return errors.New("sink down") }))
			}
			err := hooks.Notify(context.Background(), tt.event)
			if (err != nil) != tt.wantError {
				t.Fatalf("unexpected error state: %v", err)
			}
			if len(capture.Events) != tt.wantSeen {
				t.Fatalf("expected %d events, got %d", tt.wantSeen, len(capture.Events))
			}
		})
	}
}

func TestHooksNotifyToleratesNilContext(t *testing.T) {
	var seen context.Context
	hooks := Hooks{HookFunc(func(ctx context.Context, _ Event) error {
		seen = ctx
		return nil
	})}
	if err := hooks.Notify(nil, scopeEvent("s1")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if seen == nil {
		t.Fatalf("expected a background context")
	}
}

func TestVerbFilter(t *testing.T) {
	capture := &CaptureHook{}
	filter := VerbFilter{Verbs: []string{" " + VerbImportFailed}, Hook: capture}
	hooks := Hooks{filter}

	_ = hooks.Notify(context.Background(), scopeEvent("s1"))
	_ = hooks.Notify(context.Background(), Event{Verb: VerbImportFailed, ObjectType: ObjectImport, ObjectID: "lib"})

	if len(capture.Events) != 1 || capture.Events[0].ObjectID != "lib" {
		t.Fatalf("expected only the import failure, got %+v", capture.Events)
	}
}

func TestNewEmitterDisabled(t *testing.T) {
	capture := &CaptureHook{}
	for name, emitter := range map[string]*Emitter{
		"disabled": NewEmitter(Hooks{capture}, Config{}),
		"no hooks": NewEmitter(Hooks{nil}, Config{Enabled: true}),
	} {
		if emitter.Enabled() || emitter.Emits(VerbScopePublished) {
			t.Fatalf("%s: expected emitter off", name)
		}
		if err := emitter.Emit(context.Background(), scopeEvent("s1")); err != nil {
			t.Fatalf("%s: emit: %v", name, err)
		}
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected nothing captured")
	}
}

func TestEmitterStampsChannelAndIdentity(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{
		Enabled:  true,
		Identity: Identity{TenantID: "tenant-a", ActorID: "svc"},
	})

	if err := emitter.Emit(context.Background(), scopeEvent("s1")); err != nil {
		t.Fatalf("emit: %v", err)
	}
	explicit := scopeEvent("s2")
	explicit.Channel = "audit"
	explicit.TenantID = "tenant-b"
	explicit.OccurredAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := emitter.Emit(context.Background(), explicit); err != nil {
		t.Fatalf("emit: %v", err)
	}

	first, second := capture.Events[0], capture.Events[1]
	if first.Channel != DefaultChannel || first.TenantID != "tenant-a" || first.ActorID != "svc" {
		t.Fatalf("expected defaults stamped, got %+v", first)
	}
	if second.Channel != "audit" || second.TenantID != "tenant-b" || second.ActorID != "svc" {
		t.Fatalf("expected explicit fields kept, got %+v", second)
	}
	if !second.OccurredAt.Equal(explicit.OccurredAt) {
		t.Fatalf("expected timestamp kept, got %v", second.OccurredAt)
	}
}

func TestEmitterChannelFallsBackToIdentity(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Identity: Identity{Channel: "tenant-feed"}})
	_ = emitter.Emit(context.Background(), scopeEvent("s1"))
	if capture.Events[0].Channel != "tenant-feed" {
		t.Fatalf("expected identity channel, got %q", capture.Events[0].Channel)
	}
}

func TestEmitterVerbAllowList(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Verbs: []string{VerbDirectivesPlanned, " "}})

	if emitter.Emits(VerbScopePublished) || !emitter.Emits(VerbDirectivesPlanned) {
		t.Fatalf("unexpected allow list behaviour")
	}
	_ = emitter.Emit(context.Background(), scopeEvent("s1"))
	_ = emitter.Emit(context.Background(), Event{Verb: VerbDirectivesPlanned, ObjectType: ObjectPlan, ObjectID: "s1"})

	if got := capture.WithVerb(VerbDirectivesPlanned); len(got) != 1 || len(capture.Events) != 1 {
		t.Fatalf("expected only the plan event, got %+v", capture.Events)
	}
	capture.Reset()
	if len(capture.Events) != 0 {
		t.Fatalf("expected reset to clear events")
	}
}
