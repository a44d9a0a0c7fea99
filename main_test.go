package main

import (
	"testing"

	"github.com/io-sea/wfm-engine/cmd"
)

func TestVersionDefault(t *testing.T) {
	if version != "dev" {
		t.Errorf("expected default version 'dev', got %s", version)
	}
}

func TestSetVersionDoesNotPanic(t *testing.T) {
	original := version
	defer func() { version = original }()

	for _, v := range []string{"1.2.3", "dev", "v2.0.0-rc1"} {
		version = v
		cmd.SetVersion(version)
	}
}
