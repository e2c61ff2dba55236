package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-account/pkg/i18n"
)

// Handler returns the /user routes. Mount it at "/user".
func Handler(h Handle) http.Handler {
	r := chi.NewRouter()
	r.Use(i18n.Middleware)

	r.Group(func(r chi.Router) {
		if h.recaptcha != nil {
			r.Use(h.recaptcha.Middleware)
		}
		r.Post("/", h.Register)
		r.Post("/login", h.Login)
		r.Post("/forgot-password", h.ForgotPassword)
	})

	r.Post("/confirm-account", h.ConfirmAccount)
	r.Post("/login-with-google", h.LoginWithGoogle)
	r.Post("/login-with-facebook", h.LoginWithFacebook)
	r.Post("/validate-passcode", h.ValidatePasscode)
	r.Post("/reset-password", h.ResetPassword)

	r.Group(func(r chi.Router) {
		if h.jwtAuth != nil {
			r.Use(Verifier(h.jwtAuth))
		}
		r.Use(Authenticator)
		r.Use(AuthUserMiddleware)

		r.Route("/{userId}", func(r chi.Router) {
			r.Use(SelfOnly)
			r.Get("/", h.GetUser)
			r.Put("/", h.UpdateProfile)
			r.Put("/change-password", h.ChangePassword)
		})
	})

	return r
}
