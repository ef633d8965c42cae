package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Token layout constants.
const (
	sessionIDSize = 16 // UUID binary size
	expSize       = 8  // Unix timestamp big-endian
	roleSize      = 1
	sigSize       = 16 // Truncated HMAC-SHA256
	headerSize    = sessionIDSize + expSize + roleSize
	maxUserIDSize = 128
	minTokenSize  = headerSize + 1 + sigSize
)

// Token errors.
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrInvalidUserID = errors.New("invalid user id")
)

var roleCodes = map[Role]byte{RoleViewer: 0, RoleEditor: 1, RoleAdmin: 2}

// Session is a verified token payload. It implements ports.Principal.
type Session struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Subject returns the user id.
func (s Session) Subject() string { return s.UserID }

// CanWrite reports the role's write capability.
func (s Session) CanWrite() bool { return s.Role.CanWrite() }

// CanDelete reports the role's delete capability.
func (s Session) CanDelete() bool { return s.Role.CanDelete() }

// TokenService handles token generation and verification.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a new token service with the given secret and TTL.
func NewTokenService(secret string, ttlHours int) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    time.Duration(ttlHours) * time.Hour,
		now:    time.Now,
	}
}

// Generate creates a signed session token for the given user and role.
func (s *TokenService) Generate(userID string, role Role) (string, error) {
	if userID == "" || len(userID) > maxUserIDSize {
		return "", ErrInvalidUserID
	}

	sid := uuid.New()

	// Build payload: session_id (16) | exp (8) | role (1) | user_id (n)
	payload := make([]byte, headerSize+len(userID))
	copy(payload[0:sessionIDSize], sid[:])

	exp := s.now().Add(s.ttl).Unix()

	//nolint:gosec // Unix timestamps fit safely in uint64 for foreseeable future
	binary.BigEndian.PutUint64(payload[sessionIDSize:sessionIDSize+expSize], uint64(exp))

	payload[sessionIDSize+expSize] = roleCodes[ParseRole(string(role))]
	copy(payload[headerSize:], userID)

	sig := s.sign(payload)

	token := make([]byte, 0, len(payload)+sigSize)
	token = append(token, payload...)
	token = append(token, sig[:sigSize]...)

	return base64.RawURLEncoding.EncodeToString(token), nil
}

// Verify validates and decodes a token.
func (s *TokenService) Verify(token string) (Session, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Session{}, ErrInvalidToken
	}

	if len(data) < minTokenSize || len(data) > headerSize+maxUserIDSize+sigSize {
		return Session{}, ErrInvalidToken
	}

	payload := data[:len(data)-sigSize]
	providedSig := data[len(data)-sigSize:]

	expectedSig := s.sign(payload)
	if !hmac.Equal(providedSig, expectedSig[:sigSize]) {
		return Session{}, ErrInvalidToken
	}

	var sid uuid.UUID

	copy(sid[:], payload[0:sessionIDSize])

	//nolint:gosec // Unix timestamps fit in int64 for foreseeable future
	exp := int64(binary.BigEndian.Uint64(payload[sessionIDSize : sessionIDSize+expSize]))
	expiresAt := time.Unix(exp, 0)

	if s.now().After(expiresAt) {
		return Session{}, ErrTokenExpired
	}

	return Session{
		SessionID: sid.String(),
		UserID:    string(payload[headerSize:]),
		Role:      roleFromCode(payload[sessionIDSize+expSize]),
		ExpiresAt: expiresAt,
	}, nil
}

// sign computes HMAC-SHA256 of the payload.
func (s *TokenService) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)

	return mac.Sum(nil)
}

func roleFromCode(b byte) Role {
	for r, code := range roleCodes {
		if code == b {
			return r
		}
	}

	return RoleViewer
}
