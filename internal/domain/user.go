package domain

// User is stored in the users collection keyed by phone number.
type User struct {
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	Phone          string   `json:"phone"`
	HashedPassword string   `json:"hashedPassword"`
	TOSAgreement   bool     `json:"tosAgreement"`
	Checks         []string `json:"checks,omitempty"`
}

type CreateUserRequest struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	Phone        string `json:"phone" validate:"required,min=11"`
	Password     string `json:"password" validate:"required"`
	TOSAgreement bool   `json:"tosAgreement" validate:"required"`
}

// UpdateUserRequest carries the fields of a partial update. Nil fields leave
// the stored value untouched.
type UpdateUserRequest struct {
	Phone     string  `json:"phone" validate:"required,min=11"`
	FirstName *string `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1"`
	Password  *string `json:"password" validate:"omitempty,min=1"`
}

// Empty reports whether the request carries nothing to update.
func (r UpdateUserRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Password == nil
}

// HasCheck reports whether checkID is in the user's check list.
func (u *User) HasCheck(checkID string) bool {
	for _, id := range u.Checks {
		if id == checkID {
			return true
		}
	}
	return false
}

// RemoveCheck drops checkID from the user's check list and reports whether it was present.
func (u *User) RemoveCheck(checkID string) bool {
	for i, id := range u.Checks {
		if id == checkID {
			u.Checks = append(u.Checks[:i], u.Checks[i+1:]...)
			return true
		}
	}
	return false
}
