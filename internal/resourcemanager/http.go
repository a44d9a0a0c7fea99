package resourcemanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

// httpResourceManager implements the "http" kind: a plain REST
// collaborator reached over net/http.
type httpResourceManager struct {
	endpoint   string
	httpClient *http.Client
}

func newHTTPResourceManager(endpoint string, timeout time.Duration) ResourceManager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpResourceManager{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type reservationRequestBody struct {
	Name           string                 `json:"name"`
	User           string                 `json:"user"`
	UserSlurmToken string                 `json:"user_slurm_token"`
	Type           string                 `json:"type"`
	Servers        int                    `json:"servers"`
	Location       []string               `json:"location"`
	Attributes     map[string]interface{} `json:"attributes"`
}

type reservationResponseBody struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason"`
}

func (h *httpResourceManager) Reserve(ctx context.Context, req ephemeral.ReservationRequest) (bool, string, error) {
	body := reservationRequestBody{
		Name:           req.Name,
		User:           req.User,
		UserSlurmToken: "MYTOKEN",
		Type:           req.Type,
		Servers:        req.Servers,
		Location:       req.Location,
		Attributes:     req.Attributes,
	}
	var resp reservationResponseBody
	if err := h.postJSON(ctx, "/reserve", body, &resp); err != nil {
		return false, "", wfmerr.External("resourcemanager", err, "reservation request failed")
	}
	return resp.OK, resp.Reason, nil
}

func (h *httpResourceManager) ListLocations(ctx context.Context) ([]string, error) {
	var locations []string
	if err := h.getJSON(ctx, "/locations", &locations); err != nil {
		return nil, wfmerr.External("resourcemanager", err, "could not list locations")
	}
	return locations, nil
}

func (h *httpResourceManager) ListFlavors(ctx context.Context) ([]string, error) {
	var flavors []string
	if err := h.getJSON(ctx, "/flavors", &flavors); err != nil {
		return nil, wfmerr.External("resourcemanager", err, "could not list flavors")
	}
	return flavors, nil
}

func (h *httpResourceManager) postJSON(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req, out)
}

func (h *httpResourceManager) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint+path, nil)
	if err != nil {
		return err
	}
	return h.do(req, out)
}

func (h *httpResourceManager) do(req *http.Request, out interface{}) error {
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("resource manager returned %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
