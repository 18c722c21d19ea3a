package domain

// Check states.
const (
	CheckStateUp   = "up"
	CheckStateDown = "down"
)

// Check describes a URL monitored on behalf of a user.
type Check struct {
	ID             string `json:"id"`
	UserPhone      string `json:"userPhone"`
	Protocol       string `json:"protocol"`
	URL            string `json:"url"`
	Method         string `json:"method"`
	SuccessCodes   []int  `json:"successCodes"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	State          string `json:"state,omitempty"`
	LastChecked    int64  `json:"lastChecked,omitempty"` // unix ms
}

type CreateCheckRequest struct {
	Protocol       string `json:"protocol" validate:"required,oneof=http https"`
	URL            string `json:"url" validate:"required"`
	Method         string `json:"method" validate:"required,oneof=post get put delete"`
	SuccessCodes   []int  `json:"successCodes" validate:"required,min=1,dive,min=100,max=599"`
	TimeoutSeconds int    `json:"timeoutSeconds" validate:"required,min=1,max=5"`
}

type UpdateCheckRequest struct {
	ID             string  `json:"id" validate:"required"`
	Protocol       *string `json:"protocol" validate:"omitempty,oneof=http https"`
	URL            *string `json:"url" validate:"omitempty,min=1"`
	Method         *string `json:"method" validate:"omitempty,oneof=post get put delete"`
	SuccessCodes   []int   `json:"successCodes" validate:"omitempty,min=1,dive,min=100,max=599"`
	TimeoutSeconds *int    `json:"timeoutSeconds" validate:"omitempty,min=1,max=5"`
}

// Empty reports whether the request carries nothing to update.
func (r UpdateCheckRequest) Empty() bool {
	return r.Protocol == nil && r.URL == nil && r.Method == nil && r.SuccessCodes == nil && r.TimeoutSeconds == nil
}

// Accepts reports whether code is one of the check's success codes.
func (c *Check) Accepts(code int) bool {
	for _, sc := range c.SuccessCodes {
		if sc == code {
			return true
		}
	}
	return false
}
