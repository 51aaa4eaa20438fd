package augment

import (
	"context"
	"errors"

	"github.com/goliatone/go-augment/layering"
	"github.com/goliatone/go-augment/pkg/activity"
)

// WithActivityHooks attaches hooks notified when a resolution fails on
// inconsistent data. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Compact()
	return func(cfg *resolverConfig) {
		cfg.activityHooks = normalized
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (r *Resolver) ActivityHooks() activity.Hooks {
	if r == nil {
		return nil
	}
	return r.cfg.activityHooks.Compact()
}

// emitIntegrityFailure reports err to the activity hooks. Hook failures never
// mask the resolution error.
func (r *Resolver) emitIntegrityFailure(ctx context.Context, record *Record, key string, err error) {
	if !r.cfg.activityHooks.Enabled() || record == nil {
		return
	}
	input := activity.RecordEventInput{
		RecordID:    record.ID,
		ContainerID: record.ContainerID,
		BlueprintID: record.BlueprintID,
		Channel:     activity.DefaultChannel,
		Key:         key,
		Err:         err,
		Metadata:    map[string]any{"kind": integrityKind(err)},
	}
	if origin := originFromError(err); origin != "" {
		input.Layer = activity.LayerContext{
			Name:       ScopeOrigin + ":" + origin,
			SnapshotID: origin,
		}
	}
	_ = r.cfg.activityHooks.Notify(ctx, activity.BuildIntegrityFailedEvent(input))
}

func integrityKind(err error) string {
	switch {
	case errors.Is(err, ErrOriginCycle):
		return "origin_cycle"
	case errors.Is(err, ErrOriginTooDeep):
		return "origin_too_deep"
	default:
		return "data_integrity"
	}
}

// originFromError returns the record id that closed an origin cycle.
func originFromError(err error) string {
	var cycle *layering.CycleError
	if errors.As(err, &cycle) {
		return cycle.ID
	}
	return ""
}
