package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"auth-demo/monitoring"
	"auth-demo/ratelimit"
	"auth-demo/signup"

	"github.com/umakantv/go-utils/errs"
	"go.uber.org/zap"
)

const throttledMessage = "Too many signup attempts. Please try again later."

// SignupHandler serves the credential signup form.
type SignupHandler struct {
	workflow   *signup.Workflow
	limiter    ratelimit.Limiter
	trustProxy bool
}

// NewSignupHandler creates a signup handler. limiter may be nil.
// trustProxy keys the limiter on X-Forwarded-For; set it only behind a proxy
// that overwrites that header.
func NewSignupHandler(workflow *signup.Workflow, limiter ratelimit.Limiter, trustProxy bool) *SignupHandler {
	return &SignupHandler{workflow: workflow, limiter: limiter, trustProxy: trustProxy}
}

type signupPage struct {
	Name    string
	Email   string
	Errors  signup.FieldErrors
	Message string
	Created bool
}

// Form handles GET /signup - renders an empty signup form
func (h *SignupHandler) Form(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	renderPage(ctx, w, http.StatusOK, "signup", signupPage{})
}

// Submit handles POST /signup - validates the form and creates the user
func (h *SignupHandler) Submit(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	logRequest(ctx, "info", "Signup request")

	if h.throttled(ctx, w, r) {
		return
	}

	if err := r.ParseForm(); err != nil {
		logRequest(ctx, "error", "Invalid signup form", zap.Error(err))
		if wantsJSON(r) {
			writeJSON(w, http.StatusBadRequest, errs.NewValidationError("Invalid form body"))
			return
		}
		renderPage(ctx, w, http.StatusBadRequest, "error", map[string]string{"Message": "The form could not be read."})
		return
	}

	in := signup.Input{
		Name:     r.PostForm.Get("name"),
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}

	res, err := h.workflow.Signup(ctx, in)
	if err != nil {
		logRequest(ctx, "error", "Signup failed", zap.Error(err))
		monitoring.CaptureError(err, "Signup")
		monitoring.ObserveSignup("failed")
		if wantsJSON(r) {
			writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Something went wrong."))
			return
		}
		renderPage(ctx, w, http.StatusInternalServerError, "error", map[string]string{"Message": "Something went wrong. Please try again later."})
		return
	}

	monitoring.ObserveSignup(res.Outcome.String())

	var status int
	switch res.Outcome {
	case signup.OutcomeInvalid:
		status = http.StatusUnprocessableEntity
		logRequest(ctx, "info", "Signup rejected by validation", zap.Int("fields", len(res.Errors)))
	case signup.OutcomeNotCreated:
		status = http.StatusBadGateway
		logRequest(ctx, "error", "Signup insert returned no row")
	default:
		status = http.StatusCreated
		logRequest(ctx, "info", "User signed up", zap.Int("user_id", res.User.ID))
	}

	if wantsJSON(r) {
		writeJSON(w, status, res.FormState())
		return
	}

	page := signupPage{
		Errors:  res.Errors,
		Message: res.Message,
		Created: res.Outcome == signup.OutcomeCreated,
	}
	if !page.Created {
		page.Name = in.Name
		page.Email = in.Email
	}
	renderPage(ctx, w, status, "signup", page)
}

// throttled applies the per-IP signup limit and writes the 429 response.
// Limiter errors let the request through.
func (h *SignupHandler) throttled(ctx context.Context, w http.ResponseWriter, r *http.Request) bool {
	if h.limiter == nil {
		return false
	}

	info, err := h.limiter.Allow(ctx, "signup:"+clientIP(r, h.trustProxy))
	if err != nil {
		logRequest(ctx, "error", "Rate limiter unavailable", zap.Error(err))
		return false
	}
	if info.Allowed {
		return false
	}

	monitoring.ObserveSignup("throttled")
	logRequest(ctx, "info", "Signup throttled")
	w.Header().Set("Retry-After", strconv.Itoa(info.RetryAfter(time.Now())))
	if wantsJSON(r) {
		writeJSON(w, http.StatusTooManyRequests, signup.FormState{Message: throttledMessage})
		return true
	}
	renderPage(ctx, w, http.StatusTooManyRequests, "signup", signupPage{Message: throttledMessage})
	return true
}
