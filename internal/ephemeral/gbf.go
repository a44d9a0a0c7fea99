package ephemeral

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/pkg/logging"
)

// gbfService implements the GBF/NFS-over-Ganesha kind: a persistent NFS
// export backed by one data server, exposed at `mountpoint` and seeded
// from/to a dataset file named by `namespace`.
type gbfService struct {
	jm          jobmanager.JobManager
	publicType  string // "NFS" for GBF itself, "DASI" when embedded by dasiService
	serviceType string
}

func newGBFService(jm jobmanager.JobManager) Service {
	return &gbfService{jm: jm, publicType: "NFS", serviceType: "GBF"}
}

func (s *gbfService) Kind() store.ServiceKind { return store.ServiceKindGBF }
func (s *gbfService) MandatoryKeys() []string {
	return []string{"namespace", "mountpoint", "storagesize"}
}
func (s *gbfService) OptionalKeys() []string { return []string{"location", "datanodes"} }

func (s *gbfService) ValidateAttributes(attrs Attrs) error {
	if msg := checkAbsPathName(attrs["mountpoint"]); msg != "" {
		return fmt.Errorf("mountpoint %q %s", attrs["mountpoint"], msg)
	}
	_, namespace := stripHestiaPrefix(attrs["namespace"])
	dir := filepath.Dir(namespace)
	if msg := checkAbsPathDir(dir); msg != "" {
		return fmt.Errorf("namespace directory %q %s", dir, msg)
	}
	if msg := checkSize(attrs["storagesize"]); msg != "" {
		return fmt.Errorf("storage size %q %s", attrs["storagesize"], msg)
	}
	if msg := datanodesOK(attrs, s.publicType); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (s *gbfService) ValidateSet(services []Attrs) error {
	mountpoints := make([]string, len(services))
	namespaces := make([]string, len(services))
	for i, a := range services {
		mountpoints[i] = a["mountpoint"]
		namespaces[i] = a["namespace"]
	}
	if err := distinctValues(fmt.Sprintf("mountpoints for the %s services", s.publicType), mountpoints); err != nil {
		return err
	}
	return distinctValues(fmt.Sprintf("namespaces for the %s services", s.publicType), namespaces)
}

// processDatasetFile decides the data_dst/data_src options for a GBF
// creation request given the namespace file/dataset path.
func processDatasetFile(destination string) (string, error) {
	_, dst := stripHestiaPrefix(destination)
	info, err := os.Stat(dst)
	if err != nil {
		return "data_dst=" + destination, nil
	}
	if info.IsDir() {
		return "", fmt.Errorf("%q is not a file name, cannot use it as a data source or destination", dst)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("file %q is empty, cannot use it as a data source", dst)
	}
	return fmt.Sprintf("data_dst=%s data_src=%s", destination, destination), nil
}

func (s *gbfService) bbSpec(name string, attrs Attrs) (string, error) {
	dstsrc, err := processDatasetFile(attrs["namespace"])
	if err != nil {
		return "", err
	}
	parts := []string{
		"Name=" + name,
		"StorageSize=" + attrs["storagesize"],
		"Path=" + attrs["mountpoint"],
		"FSType=ganesha",
		"MetaDataServers=0",
	}
	if dn, ok := attrs["datanodes"]; ok {
		parts = append(parts, "StorageDataServers="+dn)
	}
	parts = append(parts, dstsrc)
	return strings.Join(parts, " "), nil
}

func (s *gbfService) submitOpts(attrs Attrs, workflow, runID string) jobmanager.SubmitOptions {
	return jobmanager.SubmitOptions{
		WorkflowName:  workflow,
		RunID:         runID,
		Partition:     attrs["location"],
		DependencyJob: -1,
		Env:           map[string]string{"IOLIB_MODULES": "EphemeralServices"},
	}
}

func (s *gbfService) StartSync(ctx context.Context, name string, attrs Attrs, workflow, runID string) error {
	spec, err := s.bbSpec(name, attrs)
	if err != nil {
		return err
	}
	_, err = s.jm.SubmitLine(ctx, "create_persistent "+spec+" hostname", s.submitOpts(attrs, workflow, runID))
	return err
}

func (s *gbfService) StartAsync(ctx context.Context, name string, attrs Attrs, workflow, runID string) (int64, error) {
	spec, err := s.bbSpec(name, attrs)
	if err != nil {
		logging.Error("ephemeral", err, "GBF async start for %s", name)
		return 0, err
	}
	jobid, err := s.jm.SubmitLine(ctx, "create_persistent "+spec+" hostname", s.submitOpts(attrs, workflow, runID))
	if err != nil {
		return 0, err
	}
	return jobid, nil
}

func (s *gbfService) StopSync(ctx context.Context, name string, startJobID int64, partition, workflow, runID string) error {
	_, err := s.jm.SubmitLine(ctx, fmt.Sprintf("destroy_persistent Name=%s hostname", name), jobmanager.SubmitOptions{
		WorkflowName: workflow, RunID: runID, Partition: partition, DependencyJob: startJobID,
		Env: map[string]string{"IOLIB_MODULES": "EphemeralServices"},
	})
	return err
}

func (s *gbfService) StopAsync(ctx context.Context, name string, startJobID int64, partition, workflow, runID string) (int64, error) {
	return s.jm.SubmitLine(ctx, fmt.Sprintf("destroy_persistent Name=%s hostname", name), jobmanager.SubmitOptions{
		WorkflowName: workflow, RunID: runID, Partition: partition, DependencyJob: startJobID,
		Env: map[string]string{"IOLIB_MODULES": "EphemeralServices"},
	})
}

func (s *gbfService) ProbeStatus(ctx context.Context, name string) store.ServiceStatus {
	out, err := runCommand(ctx, "scontrol", "show", "burstbuffer", name)
	if err != nil {
		return store.ServiceUnknown
	}
	return translateBBStatus(parseBBStatusLine(out))
}

func (s *gbfService) CleanupTempFiles(string) {}

func (s *gbfService) BuildUseCommand(name string, command string, startJobID int64, workflow, runID string) string {
	flags := []string{"--exclusive", "--bbf", "use." + name}
	if dep := dependencyFlag(startJobID); dep != "" {
		flags = append(flags, dep)
	}
	return rewriteForUse(command, flags...)
}

func (s *gbfService) BuildInteractiveCommand(name, partition string) string {
	opt := ""
	if partition != "" {
		opt = "-p " + partition + " "
	}
	return fmt.Sprintf(`srun -J interactive %s-N 1 -n 1 --bb "GBF use_persistent Name=%s" --pty bash`, opt, name)
}

func (s *gbfService) FillReservation(attrs Attrs, user string) ReservationRequest {
	req := baseReservation(store.ServiceKindGBF, attrs, user)
	req.Attributes["gssize"] = attrs["storagesize"]
	req.Attributes["mountpoint"] = attrs["mountpoint"]
	return req
}
