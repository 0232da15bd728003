package activity

import (
	"context"
	"slices"
	"strings"
)

// DefaultChannel is stamped on events that do not name a channel.
const DefaultChannel = "settings"

// Config controls how a Defaults root publishes settings events.
//
// Identity fills ActorID, UserID and TenantID on events that leave them
// empty, so a process that serves one tenant can configure it once. Verbs,
// when non-empty, restricts emission to the listed verbs.
type Config struct {
	Enabled  bool
	Channel  string
	Identity Identity
	Verbs    []string
}

// Emitter stamps defaults on settings events and fans them out to hooks.
type Emitter struct {
	hooks    Hooks
	channel  string
	identity Identity
	verbs    []string
}

// NewEmitter returns nil when cfg is disabled or no usable hook is given; a
// nil *Emitter is valid and never emits.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	live := compactHooks(hooks)
	if !cfg.Enabled || len(live) == 0 {
		return nil
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = strings.TrimSpace(cfg.Identity.Channel)
	}
	if channel == "" {
		channel = DefaultChannel
	}
	var verbs []string
	for _, verb := range cfg.Verbs {
		if verb = strings.TrimSpace(verb); verb != "" {
			verbs = append(verbs, verb)
		}
	}
	return &Emitter{hooks: live, channel: channel, identity: cfg.Identity, verbs: verbs}
}

// Enabled reports whether Emit can reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emits reports whether events with verb pass the verb allow list.
func (e *Emitter) Emits(verb string) bool {
	if !e.Enabled() {
		return false
	}
	return len(e.verbs) == 0 || slices.Contains(e.verbs, strings.TrimSpace(verb))
}

// Emit stamps the channel and identity defaults and notifies every hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Emits(event.Verb) {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	stampIdentity(&event, e.identity)
	return e.hooks.Notify(ctx, event)
}

func stampIdentity(event *Event, id Identity) {
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = id.ActorID
	}
	if strings.TrimSpace(event.UserID) == "" {
		event.UserID = id.UserID
	}
	if strings.TrimSpace(event.TenantID) == "" {
		event.TenantID = id.TenantID
	}
}

func compactHooks(hooks Hooks) Hooks {
	var live Hooks
	for _, hook := range hooks {
		if hook != nil {
			live = append(live, hook)
		}
	}
	return live
}
