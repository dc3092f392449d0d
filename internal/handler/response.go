package handler

// ErrorResponse is the envelope every failing endpoint returns:
// {"error": {"code": ..., "message": ...}}.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	var r ErrorResponse
	r.Error.Code = code
	r.Error.Message = message
	return r
}
