package util

import (
	"github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// SentryHook forwards every error-and-above logrus entry to the currently
// configured Sentry hub, the destination DebugDeprecationWarns in
// es_logger.go is steering cluster deprecation noise away from.
type SentryHook struct{}

// NewSentryHook returns a hook ready to be registered with log.AddHook.
// Installing it is harmless even without a DSN: sentry.CurrentHub() then
// holds a client with a no-op transport.
func NewSentryHook() *SentryHook {
	return &SentryHook{}
}

// Levels reports the entries this hook cares about.
func (h *SentryHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel}
}

// Fire reports entry to Sentry as a captured message.
func (h *SentryHook) Fire(entry *log.Entry) error {
	sentry.CurrentHub().CaptureMessage(entry.Message)
	return nil
}
