package dispatcher

import "net/http"

// ContentKind selects how a Response payload is serialized.
type ContentKind int

const (
	ContentJSON ContentKind = iota
	ContentHTML
)

func (k ContentKind) contentType() string {
	if k == ContentHTML {
		return "text/html"
	}
	return "application/json"
}

// Response is the single result of handling a Request. A zero Status means
// 200 and a nil Payload means an empty body of the given kind.
type Response struct {
	Status  int
	Payload any
	Kind    ContentKind
}

// JSON builds a JSON response.
func JSON(status int, payload any) Response {
	return Response{Status: status, Payload: payload, Kind: ContentJSON}
}

// HTML builds a text/html response.
func HTML(status int, body string) Response {
	return Response{Status: status, Payload: body, Kind: ContentHTML}
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error string `json:"error"`
}

// Error builds a JSON error response carrying msg.
func Error(status int, msg string) Response {
	return JSON(status, ErrorBody{Error: msg})
}

var (
	notFound         = JSON(http.StatusNotFound, nil)
	methodNotAllowed = Error(http.StatusMethodNotAllowed, "method not allowed")
	internalError    = Error(http.StatusInternalServerError, "internal server error")
)
