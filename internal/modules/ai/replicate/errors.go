package replicate

import (
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Error is a failure reported by Replicate: either a non-2xx API response
// or a prediction that finished as failed or canceled.
type Error struct {
	StatusCode   int
	Title        string
	Detail       string
	PredictionID string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("replicate")
	if e.Title != "" {
		b.WriteString(": " + e.Title)
	}
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.PredictionID != "" {
		fmt.Fprintf(&b, " (prediction %s)", e.PredictionID)
	}
	return b.String()
}

// problem is the JSON error body of the Replicate HTTP API.
type problem struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

func errorFromResponse(statusCode int, body []byte) *Error {
	ret := &Error{StatusCode: statusCode}
	var p problem
	if err := jsoniter.Unmarshal(body, &p); err == nil && (p.Title != "" || p.Detail != "") {
		ret.Title = p.Title
		ret.Detail = p.Detail
		return ret
	}
	ret.Title = http.StatusText(statusCode)
	ret.Detail = strings.TrimSpace(string(body))
	return ret
}

func errorFromPrediction(p *Prediction) *Error {
	detail := p.ErrorMessage()
	if detail == "" {
		detail = "prediction " + p.Status.String()
	}
	return &Error{
		Title:        "Prediction " + p.Status.String(),
		Detail:       detail,
		PredictionID: p.ID,
	}
}
