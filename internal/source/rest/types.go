package rest

// DocumentsPage is one page of GET /v1/collections/{name}/documents.
type DocumentsPage struct {
	Documents     []RawDocument `json:"documents"`
	NextPageToken string        `json:"nextPageToken"`
}

// RawDocument is a stored document with its fields kept untyped.
type RawDocument struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Me is the response of GET /v1/auth/me.
type Me struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// ErrorResponse is the error envelope returned by the backend.
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
