package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/reusedev/sketch-relay/internal/modules/http_client"
)

// StatusError is returned when a download answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to download image, status code: %d", e.StatusCode)
}

func GetOnlineImage(ctx context.Context, client *http_client.HttpClient, url string) ([]byte, error) {
	req, err := client.NewRequest(http.MethodGet, url, http_client.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
