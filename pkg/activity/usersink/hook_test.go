package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-settings/pkg/activity"
	"github.com/goliatone/go-settings/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsScopePublishedEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()
	scopeID := uuid.NewString()

	event := activity.BuildScopePublishedEvent(activity.ScopeEventInput{
		Identity:   activity.Identity{ActorID: actorID.String(), TenantID: tenantID.String(), Channel: "settings"},
		ScopeID:    scopeID,
		ScopeName:  "tenant",
		LocalCount: 2,
		OccurredAt: now,
	})
	event.DefinitionCode = "settings:publish"
	event.Recipients = []string{"ops@example.com"}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity: %+v", record)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil user ID, got %s", record.UserID)
	}
	if record.Verb != activity.VerbScopePublished || record.ObjectType != activity.ObjectScope || record.ObjectID != scopeID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "settings" || record.OccurredAt != now {
		t.Fatalf("unexpected channel or timestamp: %+v", record)
	}
	if record.Data["scope_name"] != "tenant" || record.Data["definition_code"] != "settings:publish" {
		t.Fatalf("unexpected data: %+v", record.Data)
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "ops@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifySkipsInvalidEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyDefaultsTimestampAndPropagatesSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("sink down")}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.BuildImportFailedEvent(activity.ImportEventInput{
		Alias:    "lib",
		Template: "lib/utils.ftl",
	}))
	if err == nil || err.Error() != "sink down" {
		t.Fatalf("expected sink error, got %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected one timestamped record, got %+v", sink.records)
	}
}
