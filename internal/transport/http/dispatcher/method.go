package dispatcher

import "strings"

// Method is one of the four verbs a Resource understands. Anything else
// parses to MethodUnknown and is answered with 405.
type Method int

const (
	MethodUnknown Method = iota
	MethodPost
	MethodGet
	MethodPut
	MethodDelete
)

var methodNames = map[string]Method{
	"post":   MethodPost,
	"get":    MethodGet,
	"put":    MethodPut,
	"delete": MethodDelete,
}

// ParseMethod maps an HTTP method name, in any case, to a Method.
func ParseMethod(s string) Method {
	return methodNames[strings.ToLower(s)]
}

func (m Method) String() string {
	switch m {
	case MethodPost:
		return "post"
	case MethodGet:
		return "get"
	case MethodPut:
		return "put"
	case MethodDelete:
		return "delete"
	default:
		return "unknown"
	}
}
