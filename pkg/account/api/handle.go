package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/tendant/simple-account/pkg/account"
	"github.com/tendant/simple-account/pkg/errors"
	"github.com/tendant/simple-account/pkg/i18n"
	"github.com/tendant/simple-account/pkg/user"
)

const MaxPictureSize = 5 << 20

var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

type Handle struct {
	service   *account.Service
	jwtAuth   *jwtauth.JWTAuth
	recaptcha *RecaptchaVerifier
}

type Option func(*Handle)

// WithJwtAuth sets the verifier for bearer-protected routes.
func WithJwtAuth(ja *jwtauth.JWTAuth) Option {
	return func(h *Handle) { h.jwtAuth = ja }
}

// WithRecaptcha guards register, login and forgot-password with v.
func WithRecaptcha(v *RecaptchaVerifier) Option {
	return func(h *Handle) { h.recaptcha = v }
}

func NewHandle(service *account.Service, opts ...Option) Handle {
	h := Handle{service: service}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if err == io.EOF {
			return errors.InvalidInput("body", "request body is empty")
		}
		return errors.InvalidInput("body", "malformed JSON")
	}
	return nil
}

func pathUserID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		return uuid.Nil, errors.InvalidInput("userId", "must be a uuid")
	}
	return id, nil
}

// Register handles POST /user
func (h Handle) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRequest(req); err != nil {
		renderError(w, r, err)
		return
	}

	var in account.RegisterInput
	if err := copier.Copy(&in, &req); err != nil {
		renderError(w, r, errors.InternalWrap(err, "failed to map request"))
		return
	}
	dto, err := h.service.Register(r.Context(), in, i18n.FromContext(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, dto)
}

// ConfirmAccount handles POST /user/confirm-account
func (h Handle) ConfirmAccount(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		renderError(w, r, err)
		return
	}
	payload, err := h.service.ConfirmAccount(r.Context(), req.Token)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, payload)
}

// Login handles POST /user/login
func (h Handle) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRequest(req); err != nil {
		renderError(w, r, err)
		return
	}
	res, err := h.service.Login(r.Context(), req.Email, req.Password, i18n.FromContext(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// LoginWithGoogle handles POST /user/login-with-google
func (h Handle) LoginWithGoogle(w http.ResponseWriter, r *http.Request) {
	var req LoginWithGoogleRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		renderError(w, r, err)
		return
	}
	res, err := h.service.LoginWithGoogle(r.Context(), req.IDToken, i18n.FromContext(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// LoginWithFacebook handles POST /user/login-with-facebook
func (h Handle) LoginWithFacebook(w http.ResponseWriter, r *http.Request) {
	var req LoginWithFacebookRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		renderError(w, r, err)
		return
	}
	res, err := h.service.LoginWithFacebook(r.Context(), req.UserID, req.Token, i18n.FromContext(r.Context()))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

// ValidatePasscode handles POST /user/validate-passcode
func (h Handle) ValidatePasscode(w http.ResponseWriter, r *http.Request) {
	var req ValidatePasscodeRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		renderError(w, r, err)
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		renderError(w, r, errors.InvalidInput("userId", "must be a uuid"))
		return
	}
	payload, err := h.service.ValidatePasscode(r.Context(), userID, strings.TrimSpace(req.Passcode))
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, payload)
}

// ForgotPassword handles POST /user/forgot-password
func (h Handle) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := validateRequest(req); err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, h.service.ForgotPassword(r.Context(), req.Email, i18n.FromContext(r.Context())))
}

// ResetPassword handles POST /user/reset-password
func (h Handle) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		renderError(w, r, err)
		return
	}
	payload, err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, payload)
}

// GetUser handles GET /user/{userId}
func (h Handle) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	dto, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, dto)
}

// ChangePassword handles PUT /user/{userId}/change-password
func (h Handle) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		renderError(w, r, err)
		return
	}
	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, r, err)
		return
	}
	if err := validateRequest(req); err != nil {
		renderError(w, r, err)
		return
	}
	ok, err := h.service.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, ChangePasswordResponse{Success: ok})
}

// UpdateProfile handles PUT /user/{userId}, as JSON or multipart/form-data.
func (h Handle) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUserID(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	var update account.ProfileUpdate
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		update, err = parseMultipartUpdate(r)
		if err != nil {
			renderError(w, r, err)
			return
		}
		if update.Picture != nil {
			if closer, ok := update.Picture.Body.(io.Closer); ok {
				defer closer.Close()
			}
		}
	} else {
		var req UpdateProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			renderError(w, r, err)
			return
		}
		update, err = toProfileUpdate(req)
		if err != nil {
			renderError(w, r, err)
			return
		}
	}

	dto, err := h.service.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		renderError(w, r, err)
		return
	}
	render.JSON(w, r, dto)
}

func toProfileUpdate(req UpdateProfileRequest) (account.ProfileUpdate, error) {
	if err := validateRequest(req); err != nil {
		return account.ProfileUpdate{}, err
	}
	update := account.ProfileUpdate{
		Name:          req.Name,
		MfaEnabled:    req.MfaEnabled,
		RemovePicture: req.RemovePicture,
	}
	if req.MfaMethod != nil {
		method := user.MfaMethod(strings.ToUpper(strings.TrimSpace(*req.MfaMethod)))
		if method != user.MfaMethodNone && !method.Valid() {
			return account.ProfileUpdate{}, errors.InvalidInput("mfaMethod", "must be EMAIL or APP")
		}
		update.MfaMethod = &method
	}
	return update, nil
}

// parseBool accepts the 0/1 form older clients send as well as true/false.
func parseBool(field, raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.InvalidInput(field, "must be a boolean")
	}
	return &v, nil
}

func parseMultipartUpdate(r *http.Request) (account.ProfileUpdate, error) {
	if err := r.ParseMultipartForm(MaxPictureSize); err != nil {
		return account.ProfileUpdate{}, errors.InvalidInput("body", "malformed multipart form")
	}

	req := UpdateProfileRequest{}
	if _, ok := r.MultipartForm.Value["name"]; ok {
		name := r.FormValue("name")
		req.Name = &name
	}
	if _, ok := r.MultipartForm.Value["mfaMethod"]; ok {
		method := r.FormValue("mfaMethod")
		req.MfaMethod = &method
	}
	enabled, err := parseBool("mfaEnabled", r.FormValue("mfaEnabled"))
	if err != nil {
		return account.ProfileUpdate{}, err
	}
	req.MfaEnabled = enabled
	remove, err := parseBool("removePicture", r.FormValue("removePicture"))
	if err != nil {
		return account.ProfileUpdate{}, err
	}
	req.RemovePicture = remove != nil && *remove

	update, err := toProfileUpdate(req)
	if err != nil {
		return account.ProfileUpdate{}, err
	}

	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return update, nil
	}
	if err != nil {
		return account.ProfileUpdate{}, errors.InvalidInput("file", "unreadable upload")
	}
	if header.Size > MaxPictureSize {
		file.Close()
		return account.ProfileUpdate{}, errors.InvalidInput("file", "must be smaller than 5MB")
	}
	contentType := header.Header.Get("Content-Type")
	if !acceptedImageTypes[contentType] {
		file.Close()
		return account.ProfileUpdate{}, errors.InvalidInput("file", "format not supported, use JPEG, PNG, GIF or WEBP")
	}
	slog.Debug("Received avatar upload", "filename", header.Filename, "size", header.Size)
	update.Picture = &account.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Body:        file,
	}
	return update, nil
}
