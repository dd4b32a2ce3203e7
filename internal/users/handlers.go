package users

import (
	"time"

	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/internal/auth"
	"github.com/aldoetobex/legal-case-console/internal/viewstate"
	"github.com/aldoetobex/legal-case-console/pkg/format"
)

// Options carries display settings shared by the user screens.
type Options struct {
	DefaultAvatar string
	Location      *time.Location
	IdleTTL       time.Duration
}

// Handler serves the add-user modal and the profile modal.
type Handler struct {
	auth *auth.Service
	log  *zap.Logger
	opts Options

	addUser *viewstate.Registry[addUserState]
	profile *viewstate.Registry[profileState]
}

func NewHandler(svc *auth.Service, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Handler{
		auth:    svc,
		log:     log,
		opts:    opts,
		addUser: viewstate.New(opts.IdleTTL, func() *addUserState { return &addUserState{} }),
		profile: viewstate.New(opts.IdleTTL, func() *profileState { return &profileState{} }),
	}
}

// Stores exposes the per-session state for logout and idle sweeping.
func (h *Handler) Stores() []viewstate.Store {
	return []viewstate.Store{h.addUser, h.profile}
}

func (h *Handler) imageURL(path string) string {
	return format.ImageURL(h.auth.Client().BaseURL(), path, h.opts.DefaultAvatar)
}
