package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	userrepo "github.com/sorosurance/sorosurance-backend/internal/data/repos/user"
	usertypes "github.com/sorosurance/sorosurance-backend/internal/domain/user"
	"github.com/sorosurance/sorosurance-backend/internal/pkg/errors"
	"github.com/sorosurance/sorosurance-backend/internal/platform/ctxutil"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	UserType    string `json:"user_type,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	TokenUse    string `json:"token_use,omitempty"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService interface {
	RegisterUser(dbc dbctx.Context, user *usertypes.User, password string) (*usertypes.User, error)
	LoginUser(dbc dbctx.Context, phoneNumber, password string) (*usertypes.User, *TokenPair, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     userrepo.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo userrepo.UserRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:           db,
		log:          baseLog.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
	}
}

// NormalizePhoneNumber folds local Nigerian numbers onto the +234
// international form so one customer never ends up with two accounts.
func NormalizePhoneNumber(raw string) string {
	p := strings.TrimSpace(raw)
	p = strings.ReplaceAll(p, " ", "")
	p = strings.ReplaceAll(p, "-", "")
	switch {
	case strings.HasPrefix(p, "+234"):
		return p
	case strings.HasPrefix(p, "234"):
		return "+" + p
	case strings.HasPrefix(p, "0") && len(p) == 11:
		return "+234" + p[1:]
	default:
		return p
	}
}

func (as *authService) RegisterUser(dbc dbctx.Context, user *usertypes.User, password string) (*usertypes.User, error) {
	if user == nil {
		return nil, errors.ErrInvalidArgument
	}
	user.PhoneNumber = NormalizePhoneNumber(user.PhoneNumber)
	if user.PhoneNumber == "" {
		return nil, fmt.Errorf("phone number required: %w", errors.ErrInvalidArgument)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("password too short: %w", errors.ErrInvalidArgument)
	}
	if user.UserType == "" {
		user.UserType = usertypes.TypeCustomer
	}

	exists, err := as.userRepo.PhoneNumberExists(dbc, user.PhoneNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("phone number already registered: %w", errors.ErrAlreadyExists)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.ID = uuid.New()
	user.Password = string(hashed)

	created, err := as.userRepo.Create(dbc, []*usertypes.User{user})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created[0], nil
}

func (as *authService) LoginUser(dbc dbctx.Context, phoneNumber, password string) (*usertypes.User, *TokenPair, error) {
	phoneNumber = NormalizePhoneNumber(phoneNumber)
	u, err := as.userRepo.GetByPhoneNumber(dbc, phoneNumber)
	if err != nil {
		return nil, nil, err
	}
	if u == nil || !u.IsActive {
		return nil, nil, errors.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, nil, errors.ErrUnauthorized
	}

	pair, err := as.issueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return u, pair, nil
}

func (as *authService) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := as.parseToken(refreshToken)
	if err != nil {
		return nil, errors.ErrUnauthorized
	}
	if claims.TokenUse != "refresh" {
		return nil, errors.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.ErrUnauthorized
	}

	users, err := as.userRepo.GetByIDs(dbctx.New(ctx), []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 || !users[0].IsActive {
		return nil, errors.ErrUnauthorized
	}
	return as.issueTokens(users[0])
}

func (as *authService) issueTokens(u *usertypes.User) (*TokenPair, error) {
	now := time.Now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserType:    u.UserType,
		PhoneNumber: u.PhoneNumber,
		TokenUse:    "access",
	})
	accessStr, err := access.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TokenUse: "refresh",
	})
	refreshStr, err := refresh.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessStr, RefreshToken: refreshStr}, nil
}

func (as *authService) parseToken(tokenString string) (*JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// SetContextFromToken validates the bearer token and attaches the
// caller identity to the context. An empty token passes through
// unchanged so public routes share the same middleware.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, nil
	}
	claims, err := as.parseToken(tokenString)
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", err)
	}
	if claims.TokenUse != "access" {
		return ctx, errors.ErrUnauthorized
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	return ctxutil.WithRequestData(ctx, ctxutil.RequestData{
		UserID:      claims.Subject,
		UserType:    claims.UserType,
		PhoneNumber: claims.PhoneNumber,
		ReceivedAt:  time.Now(),
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}
