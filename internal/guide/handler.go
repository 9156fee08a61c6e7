package guide

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"travelxguide/internal/middleware"
)

const maxUploadSize = 10 << 20 // 10 MiB

type Handler struct {
	Service   *Service
	uploadDir string
}

func NewHandler(s *Service, uploadDir string) *Handler {
	return &Handler{
		Service:   s,
		uploadDir: uploadDir,
	}
}

// Apply accepts the multipart guide application form, including an
// optional profileImage file.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	hourlyRate, _ := strconv.ParseFloat(r.FormValue("hourlyRate"), 64)

	req := &ApplyRequest{
		Name:         r.FormValue("name"),
		Email:        r.FormValue("email"),
		Phone:        r.FormValue("phone"),
		Password:     r.FormValue("password"),
		Experience:   r.FormValue("experience"),
		Languages:    formList(r, "languages"),
		Destinations: formList(r, "destinations"),
		Bio:          r.FormValue("bio"),
		HourlyRate:   hourlyRate,
	}

	imagePath, err := h.saveProfileImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to store profile image")
		return
	}
	req.ProfileImage = imagePath

	if err := h.Service.Apply(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			respondError(w, http.StatusBadRequest, "Email already registered")
		case errors.Is(err, ErrNotFound):
			respondError(w, http.StatusNotFound, "Guide not found")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Application submitted successfully! Please check your email for verification.",
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	res, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotApproved):
			respondError(w, http.StatusUnauthorized, "Your application is still under review. Please wait for approval.")
		case errors.Is(err, ErrNotVerified):
			respondError(w, http.StatusUnauthorized, "Please verify your email first")
		default:
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
		}
		return
	}

	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.OTP == "" {
		respondError(w, http.StatusBadRequest, "Email and OTP are required")
		return
	}

	if err := h.Service.VerifyEmail(r.Context(), req.Email, req.OTP); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respondError(w, http.StatusNotFound, "Guide not found")
		case errors.Is(err, ErrAlreadyVerified):
			respondError(w, http.StatusBadRequest, "Email already verified")
		case errors.Is(err, ErrInvalidOTP):
			respondError(w, http.StatusBadRequest, "Invalid OTP")
		case errors.Is(err, ErrOTPExpired):
			respondError(w, http.StatusBadRequest, "OTP has expired")
		default:
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email verified successfully!",
	})
}

func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.Service.ResendOTP(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respondError(w, http.StatusNotFound, "Guide not found")
		case errors.Is(err, ErrAlreadyVerified):
			respondError(w, http.StatusBadRequest, "Email already verified")
		default:
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Verification OTP resent successfully!",
	})
}

func (h *Handler) Approved(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	guides, pagination, err := h.Service.Approved(r.Context(), ApprovedFilter{
		Destination: q.Get("destination"),
		Language:    q.Get("language"),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"guides":     guides,
		"pagination": pagination,
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	guideID, ok := r.Context().Value(middleware.UserKey).(int)
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authorized")
		return
	}

	app, err := h.Service.Profile(r.Context(), guideID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Guide not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"guide":   app,
	})
}

// saveProfileImage stores the uploaded image under the upload dir with a
// timestamped name and returns the public path, or "" when no file was
// attached.
func (h *Handler) saveProfileImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("profileImage")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}

	ext := filepath.Ext(header.Filename)
	name := fmt.Sprintf("%d-guide%s", time.Now().UnixMilli(), ext)

	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}

	return "/uploads/guides/" + name, nil
}

// formList reads a repeated form field, also accepting a single
// comma-separated value the way the frontend sometimes submits it.
func formList(r *http.Request, key string) []string {
	values := r.Form[key]
	if len(values) == 1 && strings.Contains(values[0], ",") {
		values = strings.Split(values[0], ",")
	}

	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"message": msg,
	})
}
