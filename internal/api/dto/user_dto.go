package dto

// UserProfileRequest is the profile a client submits on sign-in. Role and
// status are server-assigned and not accepted here.
type UserProfileRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	BloodGroup string `json:"bloodGroup"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
}

// UpdateRoleRequest payload for PATCH /update-role.
type UpdateRoleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateStatusRequest payload for PATCH /update-status.
type UpdateStatusRequest struct {
	Email string `json:"email"`
}

// UpdateProfileRequest payload for PATCH /profile-update.
type UpdateProfileRequest struct {
	Email          string         `json:"email"`
	UpdatedProfile map[string]any `json:"updatedProfile"`
}

// RoleResponse answers GET /user/role. Role is null for unknown users.
type RoleResponse struct {
	Role *string `json:"role"`
}

// StatusResponse answers GET /user/status.
type StatusResponse struct {
	Status *string `json:"status"`
}
