package ephemeral

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/stretchr/testify/require"
)

func TestDASI_DerivedNamespaceFile(t *testing.T) {
	sum := sha256.Sum256([]byte("/mnt_points/dasi"))
	want := filepath.Join("/tmp/test", hex.EncodeToString(sum[:]))
	require.Equal(t, want, DerivedNamespaceFile("/tmp/test", "/mnt_points/dasi"))
}

func TestDASI_ResolveRoot_SingleRoot(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dasi.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("root: /mnt_points/dasi\n"), 0o644))

	root, err := ResolveRoot(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "/mnt_points/dasi", root)
}

func TestDASI_ResolveRoot_MultipleRootsRejected(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "dasi.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("roots: [/a, /b]\n"), 0o644))

	_, err := ResolveRoot(cfgPath)
	require.Error(t, err)
}

func TestGBF_ValidateAttributes(t *testing.T) {
	dir := t.TempDir()
	svc := newGBFService(nil).(*gbfService)

	err := svc.ValidateAttributes(Attrs{
		"mountpoint":  "/mnt/fs1",
		"namespace":   filepath.Join(dir, "data.bin"),
		"storagesize": "10G",
	})
	require.NoError(t, err)

	err = svc.ValidateAttributes(Attrs{
		"mountpoint":  "relative/path",
		"namespace":   filepath.Join(dir, "data.bin"),
		"storagesize": "10G",
	})
	require.Error(t, err)
}

func TestGBF_ValidateSet_DistinctMountpoints(t *testing.T) {
	svc := newGBFService(nil).(*gbfService)
	err := svc.ValidateSet([]Attrs{
		{"mountpoint": "/mnt/a", "namespace": "/ns/a"},
		{"mountpoint": "/mnt/a", "namespace": "/ns/b"},
	})
	require.Error(t, err)
}

func TestRegistry_UnknownKind(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Get("BOGUS")
	require.Error(t, err)
}

func TestRegistry_KnownKinds(t *testing.T) {
	r := NewRegistry(nil)
	for _, k := range []store.ServiceKind{store.ServiceKindSBB, store.ServiceKindGBF, store.ServiceKindDASI, store.ServiceKindNone} {
		svc, err := r.Get(k)
		require.NoError(t, err)
		require.NotNil(t, svc)
	}
}

func TestRewriteForUse(t *testing.T) {
	got := rewriteForUse("sbatch job.sh", "--bbf", "spec.txt")
	require.Equal(t, "sbatch --bbf spec.txt job.sh", got)

	unchanged := rewriteForUse("srun job.sh", "--bbf", "spec.txt")
	require.Equal(t, "srun job.sh", unchanged)
}

func TestCheckSize(t *testing.T) {
	require.Equal(t, "", checkSize("10G"))
	require.Equal(t, "", checkSize("512Mi"))
	require.NotEqual(t, "", checkSize("not a size"))
}
