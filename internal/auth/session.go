package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aldoetobex/legal-case-console/internal/backend"
	"github.com/aldoetobex/legal-case-console/pkg/models"
)

const snapshotTTL = 12 * time.Hour

/* ============================== Snapshot ============================== */

// Snapshot is the signed-in user as last verified by the API. It is a value:
// readers get a copy, and only Verify and Refresh produce new ones.
type Snapshot struct {
	SessionID string      `json:"session_id"`
	User      models.User `json:"user"`
	IssuedAt  time.Time   `json:"issued_at"`
}

// Caps is the capability set of the snapshot's role.
func (s Snapshot) Caps() Capabilities { return CapabilitiesFor(s.User.Role) }

// UserID is a shortcut for s.User.ID.
func (s Snapshot) UserID() int64 { return s.User.ID }

/* ============================== JWT Claims ============================== */

// Claims is the payload of the snapshot cookie.
type Claims struct {
	Session     string      `json:"sid"`
	User        models.User `json:"user"`
	Fingerprint string      `json:"fp"` // sha256 of the forwarded upstream cookie
	jwt.RegisteredClaims
}

/* ============================== Service ============================== */

// Service owns the session snapshot: it verifies users against the API and
// issues or reads the snapshot cookie.
type Service struct {
	api    *backend.Client
	secret []byte
	cookie string
	secure bool
	log    *zap.Logger
	now    func() time.Time
}

func NewService(api *backend.Client, secret, cookieName string, secure bool, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		api:    api,
		secret: []byte(secret),
		cookie: cookieName,
		secure: secure,
		log:    log,
		now:    time.Now,
	}
}

// CookieName is the name of the snapshot cookie.
func (s *Service) CookieName() string { return s.cookie }

// API returns the upstream client bound to the request's forwarded credentials.
func (s *Service) API(c *fiber.Ctx) *backend.Session {
	return s.api.As(UpstreamCookie(c, s.cookie))
}

// Client is the unbound upstream client.
func (s *Service) Client() *backend.Client { return s.api }

// Verify resolves the user with GET /api/verify and issues a new snapshot
// under a fresh session id. Any failure means not authenticated; there is no retry.
func (s *Service) Verify(ctx context.Context, c *fiber.Ctx) (Snapshot, error) {
	return s.verify(ctx, c, uuid.NewString())
}

// Refresh re-verifies the user after a profile change and replaces the
// snapshot, keeping the session id so per-session state survives.
func (s *Service) Refresh(ctx context.Context, c *fiber.Ctx, prev Snapshot) (Snapshot, error) {
	return s.verify(ctx, c, prev.SessionID)
}

func (s *Service) verify(ctx context.Context, c *fiber.Ctx, sid string) (Snapshot, error) {
	upstream := UpstreamCookie(c, s.cookie)
	user, err := s.api.As(upstream).Verify(ctx)
	if err != nil {
		s.log.Info("session verify failed", zap.Error(err))
		return Snapshot{}, err
	}
	if !Valid(user.Role) {
		s.log.Warn("verified user has an unknown role",
			zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	}
	snap := Snapshot{SessionID: sid, User: *user, IssuedAt: s.now().UTC().Truncate(time.Second)}
	token, err := s.sign(snap, fingerprint(upstream))
	if err != nil {
		return Snapshot{}, err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  snap.IssuedAt.Add(snapshotTTL),
	})
	c.Locals(localsKey, snap)
	return snap, nil
}

// IssueToken signs a snapshot bound to the given upstream cookie. Verify and
// Refresh use it to write the cookie; it is also handy for seeding sessions.
func (s *Service) IssueToken(snap Snapshot, upstreamCookie string) (string, error) {
	return s.sign(snap, fingerprint(upstreamCookie))
}

func (s *Service) sign(snap Snapshot, fp string) (string, error) {
	claims := &Claims{
		Session:     snap.SessionID,
		User:        snap.User,
		Fingerprint: fp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   itoa(snap.User.ID),
			IssuedAt:  jwt.NewNumericDate(snap.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(snap.IssuedAt.Add(snapshotTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

var errFingerprint = errors.New("snapshot bound to other credentials")

// read parses the snapshot cookie. A snapshot issued for different upstream
// credentials is rejected so that a new login is re-verified.
func (s *Service) read(c *fiber.Ctx, checkFingerprint bool) (Snapshot, error) {
	raw := c.Cookies(s.cookie)
	if raw == "" {
		return Snapshot{}, fiber.ErrUnauthorized
	}
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return Snapshot{}, fiber.ErrUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Session == "" {
		return Snapshot{}, fiber.ErrUnauthorized
	}
	if checkFingerprint && claims.Fingerprint != fingerprint(UpstreamCookie(c, s.cookie)) {
		return Snapshot{}, errFingerprint
	}
	var issued time.Time
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time.UTC()
	}
	return Snapshot{SessionID: claims.Session, User: claims.User, IssuedAt: issued}, nil
}

// Clear expires the snapshot cookie.
func (s *Service) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

/* ============================== Helpers ============================== */

// UpstreamCookie returns the request's Cookie header without the console's
// own snapshot cookie. This is what gets forwarded to the API.
func UpstreamCookie(c *fiber.Ctx, own string) string {
	header := c.Get(fiber.HeaderCookie)
	if header == "" {
		return ""
	}
	parts := strings.Split(header, ";")
	kept := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, _, _ := strings.Cut(p, "=")
		if strings.TrimSpace(name) == own {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "; ")
}

func fingerprint(upstream string) string {
	sum := sha256.Sum256([]byte(upstream))
	return hex.EncodeToString(sum[:])
}
