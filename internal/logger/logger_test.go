package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetAndNamed(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))

	Named("configsync").Infow("tick", "ok", true)
	Get().Debugw("hidden")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "configsync" || entries[0].Message != "tick" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}
