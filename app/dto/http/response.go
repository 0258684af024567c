package http

// Response is the success envelope returned by every endpoint.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the failure envelope. Data is always null, Errors holds
// optional field-level detail and is never omitted.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Data       any      `json:"data"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func NewResponse(statusCode int, message string, data any) *Response {
	return &Response{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
		Success:    true,
	}
}

func NewErrorResponse(statusCode int, message string, subErrors []string) *ErrorResponse {
	if subErrors == nil {
		subErrors = []string{}
	}
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message,
		Data:       nil,
		Success:    false,
		Errors:     subErrors,
	}
}

type LoginData struct {
	User         any    `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
