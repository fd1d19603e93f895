package replicate

import (
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

type Status string

const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Terminal() bool {
	return lo.Contains([]Status{StatusSucceeded, StatusFailed, StatusCanceled}, s)
}

type PredictionURLs struct {
	Get    string `json:"get"`
	Cancel string `json:"cancel"`
	Stream string `json:"stream,omitempty"`
}

type Prediction struct {
	ID          string              `json:"id"`
	Model       string              `json:"model"`
	Version     string              `json:"version"`
	Status      Status              `json:"status"`
	Output      jsoniter.RawMessage `json:"output"`
	Error       any                 `json:"error"`
	Logs        string              `json:"logs"`
	URLs        PredictionURLs      `json:"urls"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// ErrorMessage renders the provider's error field, which may be a string or
// an arbitrary JSON value.
func (p *Prediction) ErrorMessage() string {
	switch v := p.Error.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		s, err := jsoniter.MarshalToString(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return s
	}
}

// ModelRef identifies a model as "owner/name" or "owner/name:version".
type ModelRef struct {
	Owner   string
	Name    string
	Version string
}

func ParseModelRef(s string) (ModelRef, error) {
	ref, version, _ := strings.Cut(s, ":")
	owner, name, ok := strings.Cut(ref, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return ModelRef{}, fmt.Errorf("invalid model identifier %q, expected owner/name[:version]", s)
	}
	return ModelRef{Owner: owner, Name: name, Version: version}, nil
}

func (m ModelRef) String() string {
	if m.Version == "" {
		return m.Owner + "/" + m.Name
	}
	return m.Owner + "/" + m.Name + ":" + m.Version
}

// createRequest is the body of a prediction creation call.
type createRequest struct {
	model ModelRef
	input any
}

func (r *createRequest) Path() string {
	if r.model.Version != "" {
		return "v1/predictions"
	}
	return "v1/models/" + r.model.Owner + "/" + r.model.Name + "/predictions"
}

func (r *createRequest) Body() map[string]any {
	body := map[string]any{"input": r.input}
	if r.model.Version != "" {
		body["version"] = r.model.Version
	}
	return body
}
