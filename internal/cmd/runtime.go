package cmd

import (
	"github.com/liwei-chen/wfgate/internal/config"
	"github.com/liwei-chen/wfgate/internal/eventlog"
	"github.com/liwei-chen/wfgate/internal/logging"
	"github.com/liwei-chen/wfgate/internal/notify"
	"github.com/liwei-chen/wfgate/internal/state"
)

// runtime bundles the collaborators every subcommand needs, built once from
// the resolved configuration.
type runtime struct {
	cfg      *config.Config
	log      *logging.Logger
	store    state.Store
	events   *eventlog.Log
	notifier *notify.Notifier
}

// newRuntime builds the runtime for a hook invocation. Construction never
// fails: a broken config or unwritable log degrades to defaults and a no-op
// logger, because hooks must not block the orchestrator.
func newRuntime(hookName string) *runtime {
	cfg := config.Get()

	log := logging.NopLogger()
	if cfg.Logging.Enabled {
		l, err := logging.NewLogger(cfg.Paths.DebugLogFile(), cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err == nil {
			log = l
		}
	}
	if hookName != "" {
		log = log.WithHook(hookName)
	}

	events := eventlog.New(cfg.Paths.EventsFile(), cfg.Paths.ViolationsFile(), eventlog.Options{
		StaleWindow:        cfg.Tracker.StaleWindow(),
		WarnThresholdEdits: cfg.Tracker.WarnThresholdEdits,
		MaxLogSizeBytes:    cfg.Tracker.MaxLogSizeBytes,
		KeepRecords:        cfg.Tracker.KeepRecords,
	}, log)

	return &runtime{
		cfg:      cfg,
		log:      log,
		store:    state.NewFileStore(cfg.Paths.StateFile(), log),
		events:   events,
		notifier: notify.New(cfg.Notifications.Enabled, cfg.Notifications.Timeout(), log),
	}
}

func (r *runtime) Close() {
	_ = r.log.Close()
}
