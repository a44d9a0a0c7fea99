package resolver

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/stretchr/testify/require"
)

func TestServiceName(t *testing.T) {
	require.Equal(t, "alice-mysession-burst1", ServiceName("alice", "mysession", "burst1"))
}

func TestStepInstanceName(t *testing.T) {
	name := StepInstanceName("alice", "mysession", "simulate")
	require.Equal(t, "alice-mysession-simulate_1", name(1))
	require.Equal(t, "alice-mysession-simulate_3", name(3))
}

func TestRewriteDASIAttributes(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dasi.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("root: /mnt_points/dasi\n"), 0o644))

	attrs := ephemeral.Attrs{
		"dasiconfig":  cfgPath,
		"namespace":   "/ns/base",
		"storagesize": "10G",
	}
	require.NoError(t, RewriteDASIAttributes(attrs))
	require.Equal(t, "/mnt_points/dasi", attrs["mountpoint"])

	sum := sha256.Sum256([]byte("/mnt_points/dasi"))
	require.Equal(t, filepath.Join("/ns/base", hex.EncodeToString(sum[:])), attrs["namespace"])
}
