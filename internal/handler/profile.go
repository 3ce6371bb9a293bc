package handler

import (
	"errors"
	"net/http"

	"github.com/teamx/teamfinder/internal/apperr"
	"github.com/teamx/teamfinder/internal/ctxkeys"
	"github.com/teamx/teamfinder/internal/httpx"
	"github.com/teamx/teamfinder/internal/model"
	"github.com/teamx/teamfinder/internal/service"
	"github.com/teamx/teamfinder/internal/validation"
)

// multipart overhead on top of the avatar size limit
const avatarFormSlack = 1 << 20

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

type profileResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Profile *model.Profile `json:"profile"`
}

type profilesResponse struct {
	Success  bool             `json:"success"`
	Count    int              `json:"count"`
	Profiles []*model.Profile `json:"profiles"`
}

// Setup handles POST /profile/setup.
func (h *ProfileHandler) Setup(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var in validation.ProfileInput
	err := httpx.Decode(w, r, &in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	profile, err := h.profileService.Upsert(r.Context(), user.ID, in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, profileResponse{Success: true, Message: "Profile saved successfully", Profile: profile})
}

// Mine handles GET /profile/me.
func (h *ProfileHandler) Mine(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	h.respond(w, r, "")(h.profileService.Mine(r.Context(), user.ID))
}

// List handles GET /profile.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profileService.List(r.Context())
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profilesResponse{Success: true, Count: len(profiles), Profiles: profiles})
}

// Posted handles GET /profile/posted/all?techStack=&role=&year=.
func (h *ProfileHandler) Posted(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	profiles, err := h.profileService.ListPosted(r.Context(), service.ProfileFilter{
		TechStack: q.Get("techStack"),
		Role:      q.Get("role"),
		Year:      q.Get("year"),
	})
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profilesResponse{Success: true, Count: len(profiles), Profiles: profiles})
}

// ByUser handles GET /profile/user/{userId}.
func (h *ProfileHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "")(h.profileService.ByUserID(r.Context(), r.PathValue("userId")))
}

// Get handles GET /profile/{id}.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "")(h.profileService.ByID(r.Context(), r.PathValue("id")))
}

// Update handles PUT /profile/{id}.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var patch validation.ProfilePatch
	err := httpx.Decode(w, r, &patch)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}

	h.respond(w, r, "Profile updated")(h.profileService.Update(r.Context(), r.PathValue("id"), user.ID, patch))
}

// Delete handles DELETE /profile/{id}.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	h.respond(w, r, "Profile deleted")(h.profileService.Delete(r.Context(), r.PathValue("id"), user.ID))
}

// Post handles PATCH /profile/{id}/post.
func (h *ProfileHandler) Post(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	h.respond(w, r, "Profile posted")(h.profileService.Post(r.Context(), r.PathValue("id"), user.ID))
}

// Unpost handles PATCH /profile/{id}/unpost.
func (h *ProfileHandler) Unpost(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	h.respond(w, r, "Profile unposted")(h.profileService.Unpost(r.Context(), r.PathValue("id"), user.ID))
}

// UploadAvatar handles POST /profile/{id}/avatar (multipart field "avatar").
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, validation.AvatarConstraints.MaxSize+avatarFormSlack)
	err := r.ParseMultipartForm(validation.AvatarConstraints.MaxSize)
	if err != nil {
		var maxErr *http.MaxBytesError
		msg := "expected multipart form with an avatar file"
		if errors.As(err, &maxErr) {
			msg = "file too large: maximum size is 5 MB"
		}
		httpx.Error(w, r, apperr.Validation(map[string]string{"avatar": msg}))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["avatar"]
	if len(files) == 0 {
		httpx.Error(w, r, apperr.Validation(map[string]string{"avatar": "avatar file is required"}))
		return
	}

	h.respond(w, r, "Avatar updated")(h.profileService.SetAvatar(r.Context(), r.PathValue("id"), user.ID, files[0]))
}

// DeleteAvatar handles DELETE /profile/{id}/avatar.
func (h *ProfileHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	h.respond(w, r, "Avatar removed")(h.profileService.DeleteAvatar(r.Context(), r.PathValue("id"), user.ID))
}

// respond writes a single-profile result.
func (h *ProfileHandler) respond(w http.ResponseWriter, r *http.Request, message string) func(*model.Profile, error) {
	return func(profile *model.Profile, err error) {
		if err != nil {
			httpx.Error(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, profileResponse{Success: true, Message: message, Profile: profile})
	}
}
