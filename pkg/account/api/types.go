package api

type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6,maxbytes=72"`
}

type TokenRequest struct {
	Token string `json:"token" validate:"notblank"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginWithGoogleRequest struct {
	IDToken string `json:"idToken" validate:"notblank"`
}

type LoginWithFacebookRequest struct {
	UserID string `json:"userId" validate:"notblank"`
	Token  string `json:"token" validate:"notblank"`
}

type ValidatePasscodeRequest struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Passcode string `json:"passcode" validate:"notblank"`
	Method   string `json:"method,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"notblank"`
	NewPassword string `json:"newPassword" validate:"min=6,maxbytes=72"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"min=6,maxbytes=72"`
}

type ChangePasswordResponse struct {
	Success bool `json:"success"`
}

// UpdateProfileRequest is the JSON form of a profile update. The multipart
// form uses the same field names plus a "file" part.
type UpdateProfileRequest struct {
	Name          *string `json:"name" validate:"omitnil,notblank"`
	MfaEnabled    *bool   `json:"mfaEnabled"`
	MfaMethod     *string `json:"mfaMethod"`
	RemovePicture bool    `json:"removePicture"`
}

type ErrorResponse struct {
	StatusCode int            `json:"statusCode"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}
