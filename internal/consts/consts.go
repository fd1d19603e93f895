package consts

const (
	ServiceName   = "Replicate Flux Kontext Pro"
	HealthyStatus = "healthy"

	ReplicateBaseURL = "https://api.replicate.com"
	FluxKontextPro   = "black-forest-labs/flux-kontext-pro"

	MimePNG = "image/png"
)
