package user

import (
	"net/http"

	"github.com/elmerescandon/financy-v2-sub000/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid                 string `json:"uid"`
	Email               string `json:"email"`
	DisplayName         string `json:"displayName"`
	Currency            string `json:"currency"`
	OnboardingCompleted bool   `json:"onboardingCompleted"`
}

type UpdateUserDTO struct {
	DisplayName string `json:"displayName"`
	Currency    string `json:"currency"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// CurrentUser godoc
// @Summary Get current user
// @Description Retrieve the currently authenticated user's profile
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 401 {object} rest.ErrorResponse "Not authenticated"
// @Router /api/user/current [get]
// @Security BearerAuth
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusOK, userToDTO(currentUser))
}

// UpdateUser godoc
// @Summary Update current user
// @Description Update display name and default currency of the current user
// @Tags User
// @Accept json
// @Produce json
// @Param user body UpdateUserDTO true "User"
// @Success 200 {object} UserDTO
// @Failure 400 {object} rest.ErrorResponse "Invalid request"
// @Router /api/user/current [put]
// @Security BearerAuth
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Updating user")

	var dto UpdateUserDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		rest.WriteError(w, err)
		return
	}
	log.Debugf("Updating user: %+v", dto)

	updatedUser, err := h.userService.UpdateCurrentUser(r.Context(), User{
		DisplayName: dto.DisplayName,
		Currency:    dto.Currency,
	})
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusOK, userToDTO(updatedUser))
}

// CompleteOnboarding godoc
// @Summary Complete onboarding
// @Description Mark the first-run budget setup of the current user as done
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Router /api/user/current/onboarding [post]
// @Security BearerAuth
func (h *Handler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	log.Trace("Completing onboarding")

	updatedUser, err := h.userService.CompleteOnboarding(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteData(w, http.StatusOK, userToDTO(updatedUser))
}

func userToDTO(user User) UserDTO {
	return UserDTO{
		Uid:                 user.Uid,
		Email:               user.Email,
		DisplayName:         user.DisplayName,
		Currency:            user.Currency,
		OnboardingCompleted: user.OnboardingCompleted,
	}
}
