package entity

// CaptureResult is the outcome of one capture invocation.
type CaptureResult struct {
	URL          string `json:"url"`
	DocumentName string `json:"document_name,omitempty"`
	Mime         string `json:"mime,omitempty"`
	Content      string `json:"-"`
	// Reference is how the parent document refers to the saved artifact. It
	// is empty when nothing was saved.
	Reference string `json:"reference,omitempty"`
	// Error carries a failure across the frame delegation boundary.
	Error string `json:"error,omitempty"`
}

// Artifact is a finished document handed to the document sink.
type Artifact struct {
	DocumentName string
	Mime         string
	Content      string
}
