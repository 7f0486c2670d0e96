package api

// responses---------------------

type UploadResponse struct {
	Message       string `json:"message" example:"File uploaded and processed successfully."`
	FilePath      string `json:"filePath" example:"/uploads/upload.pdf"`
	DocumentId    string `json:"documentId" example:"upload"`
	TextExtracted string `json:"textExtracted" example:"Authorized by Jane Doe"`
}

type QueryResponse struct {
	Answer string `json:"answer" example:"The letter was signed by Jane Doe."`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"Only PDF and DOCX files are allowed"`
	Kind    string `json:"kind" example:"UnsupportedFormat"`
	TraceId string `json:"traceId,omitempty" example:"6f1c2a4e-8a7b-4a53-9c0e-1f2d3e4a5b6c"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// requests---------------------

type QueryRequest struct {
	FilePath string `json:"filePath" example:"/uploads/upload.pdf"`
	Question string `json:"question" example:"Who signed the letter?"`
}
