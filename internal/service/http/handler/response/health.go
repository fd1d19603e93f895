package response

type Health struct {
	Status        string `json:"status"`
	APIConfigured bool   `json:"api_configured"`
	Service       string `json:"service"`
}
