package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

// jwtRequest covers both login shapes: by username or by email. Exactly one
// of the two identity fields must be present.
type jwtRequest struct {
	Username string `json:"username" validate:"required_without=Email,excluded_with=Email"`
	Email    string `json:"email"    validate:"required_without=Username,omitempty,email"`
	Password string `json:"password" validate:"required"`
	Service  string `json:"service"  validate:"required,max=50"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
}

type changeAccessRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Access   string `json:"access"   validate:"required,oneof=unspecified admin client"`
}

type deleteUserRequest struct {
	Username string `json:"username" validate:"required,max=50"`
}

// --- Response types ---
// These are intentionally separate from ports/domain types so the JSON
// contract is not coupled to internal service changes.

type jwtResponse struct {
	JWT string `json:"jwt"`
}

type userListItemResponse struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

type userListResponse struct {
	Users       []userListItemResponse `json:"users"`
	IsFinalPage bool                   `json:"is_final_page"`
}

type createdResponse struct {
	Created bool `json:"created"`
}

type updatedResponse struct {
	Updated bool `json:"updated"`
}

type deletedResponse struct {
	Deleted bool `json:"deleted"`
}
