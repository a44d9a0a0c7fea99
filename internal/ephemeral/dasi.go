package ephemeral

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/store"
	"gopkg.in/yaml.v3"
)

type dasiConfigDoc struct {
	Root  string   `yaml:"root"`
	Roots []string `yaml:"roots"`
}

func parseDASIRoot(data []byte) (string, error) {
	var doc dasiConfigDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("invalid YAML: %w", err)
	}
	var root string
	switch {
	case doc.Root != "" && len(doc.Roots) == 0:
		root = doc.Root
	case doc.Root == "" && len(doc.Roots) == 1:
		root = doc.Roots[0]
	}
	if !filepath.IsAbs(root) {
		return "", fmt.Errorf("does not resolve to exactly one absolute root path")
	}
	return root, nil
}

// dasiService implements the DASI kind. It behaves exactly like GBF once
// its attributes have been rewritten by resolver.RewriteDASIAttributes: a DASI
// declaration names a config file and a base namespace directory; the
// resolver turns those into a concrete mountpoint (the DASI root) and a
// per-session namespace file (§4.F, §8 scenario 6).
type dasiService struct {
	*gbfService
}

func newDASIService(jm jobmanager.JobManager) Service {
	return &dasiService{gbfService: &gbfService{jm: jm, publicType: "DASI", serviceType: "DASI"}}
}

func (s *dasiService) Kind() store.ServiceKind { return store.ServiceKindDASI }

func (s *dasiService) MandatoryKeys() []string {
	return []string{"dasiconfig", "namespace", "storagesize"}
}

// ValidateAttributes does not delegate to gbfService's implementation:
// GBF's mountpoint/namespace checks target different attribute keys than
// DASI declares.
func (s *dasiService) ValidateAttributes(attrs Attrs) error {
	dasiConfig := attrs["dasiconfig"]
	if msg := checkAbsPathName(dasiConfig); msg != "" {
		return fmt.Errorf("the DASI configuration file %q %s", dasiConfig, msg)
	}
	f, err := os.Open(dasiConfig)
	if err != nil {
		return fmt.Errorf("could not open DASI configuration file %q for reading", dasiConfig)
	}
	f.Close()

	_, namespace := stripHestiaPrefix(attrs["namespace"])
	if msg := checkAbsPathDir(namespace); msg != "" {
		return fmt.Errorf("namespace directory %q %s", namespace, msg)
	}
	if msg := checkSize(attrs["storagesize"]); msg != "" {
		return fmt.Errorf("storage size %q %s", attrs["storagesize"], msg)
	}
	return nil
}

// FillReservation reuses GBF's attribute shape but reports the DASI type.
func (s *dasiService) FillReservation(attrs Attrs, user string) ReservationRequest {
	req := s.gbfService.FillReservation(attrs, user)
	req.Type = string(store.ServiceKindDASI)
	return req
}

func (s *dasiService) ValidateSet(services []Attrs) error {
	configs := make([]string, len(services))
	for i, a := range services {
		configs[i] = a["dasiconfig"]
	}
	return distinctValues("DASI config files", configs)
}

// ResolveRoot reads a DASI config file and returns the single absolute
// root path it resolves to, the value §4.F rewrites `mountpoint` with.
// The engine's DASI config format is a flat YAML document carrying either a
// "root: <path>" scalar or a "roots:" list with exactly one entry; any other
// shape, or a root that is not an absolute path, is an error.
func ResolveRoot(configPath string) (string, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("could not read DASI configuration file %q: %w", configPath, err)
	}
	root, err := parseDASIRoot(data)
	if err != nil {
		return "", fmt.Errorf("DASI configuration file %q: %w", configPath, err)
	}
	return root, nil
}

// DerivedNamespaceFile returns the per-session namespace file name DASI
// services use: the sha256 hex digest of the resolved mountpoint, placed
// under the declared namespace base directory (§4.F).
func DerivedNamespaceFile(namespaceBaseDir, mountpoint string) string {
	sum := sha256.Sum256([]byte(mountpoint))
	return filepath.Join(namespaceBaseDir, hex.EncodeToString(sum[:]))
}
