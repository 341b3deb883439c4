package dtos

type LinkProcessRequest struct {
	Link string `json:"link"`
}

type LinkProcessResponse struct {
	Message         string `json:"message"`
	JobTitle        string `json:"job_title,omitempty"`
	CompanyName     string `json:"company_name,omitempty"`
	CompanyLocation string `json:"company_location,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
