package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PingUntil polls /api/ping until the server answers, the timeout passes or
// the context is canceled. It reports whether the server answered.
func PingUntil(ctx context.Context, baseURL string, timeout time.Duration) bool {
	pingURL := baseURL + "/api/ping"
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {

		case <-deadline.C:
			logrus.Warnf("ping hits %s timeout", timeout)
			return false

		case <-ctx.Done():
			return false

		case <-ticker.C:
			var response map[string]interface{}
			if err := getJSON(ctx, pingURL, &response); err == nil {
				return true
			}
		}
	}
}

func getJSON(ctx context.Context, url string, data interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(data)
}
