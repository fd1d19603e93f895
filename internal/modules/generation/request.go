package generation

import "fmt"

const promptTemplate = "Transform this jewelry sketch into a realistic, high-quality photograph of %s. " +
	"The image should show detailed metalwork, proper lighting, and professional jewelry photography quality."

// BuildPrompt embeds description verbatim into the scene template.
func BuildPrompt(description string) string {
	return fmt.Sprintf(promptTemplate, description)
}

// Request is the input object of a generation prediction.
type Request struct {
	Prompt        string  `json:"prompt"`
	InputImage    string  `json:"input_image"`
	OutputFormat  string  `json:"output_format"`
	AspectRatio   string  `json:"aspect_ratio"`
	GuidanceScale float64 `json:"guidance_scale"`
}

type Input struct {
	Image []byte
	// Description is nil when the caller sent none. Empty text is kept as is.
	Description *string
}

func (r *Relay) description(description *string) string {
	if description == nil {
		return r.defaultDescription
	}
	return *description
}

func (r *Relay) newRequest(description, dataURL string) Request {
	return Request{
		Prompt:        BuildPrompt(description),
		InputImage:    dataURL,
		OutputFormat:  r.outputFormat,
		AspectRatio:   r.aspectRatio,
		GuidanceScale: r.guidanceScale,
	}
}
