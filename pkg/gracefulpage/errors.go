package gracefulpage

// GotoErrorDetails describes the navigation that failed.
type GotoErrorDetails struct {
	URL      string
	Options  GotoOptions
	Response Response
}

// GotoError is returned by Goto when the server answers 429 Too Many Requests
// without a usable Retry-After header.
type GotoError struct {
	Message string
	Details GotoErrorDetails
}

func (e *GotoError) Error() string {
	return e.Message
}
