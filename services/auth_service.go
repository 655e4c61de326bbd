package services

import (
	"errors"
	"fmt"
	"time"

	"torchtally/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db              *gorm.DB
	jwtSecret       string
	commissionerKey string
}

func NewAuthService(db *gorm.DB, jwtSecret, commissionerKey string) *AuthService {
	return &AuthService{
		db:              db,
		jwtSecret:       jwtSecret,
		commissionerKey: commissionerKey,
	}
}

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,min=3,max=50"`
	DisplayName     string `json:"display_name" binding:"required,max=100"`
	Password        string `json:"password" binding:"required,min=8"`
	CommissionerKey string `json:"commissioner_key"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken    string `json:"access_token"`
	PlayerID       uint   `json:"player_id"`
	DisplayName    string `json:"display_name"`
	IsCommissioner bool   `json:"is_commissioner"`
}

// Claims carried in the access token.
type Claims struct {
	PlayerID       uint `json:"player_id"`
	IsCommissioner bool `json:"is_commissioner"`
	jwt.RegisteredClaims
}

// GenerateToken issues a signed HS256 access token for a player.
func GenerateToken(secret string, playerID uint, isCommissioner bool) (string, error) {
	claims := Claims{
		PlayerID:       playerID,
		IsCommissioner: isCommissioner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", playerID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a token string and returns its claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token: %w", models.ErrUnauthorized)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims: %w", models.ErrUnauthorized)
	}
	return claims, nil
}

// Register creates a fantasy player account. Supplying the configured
// commissioner key grants commissioner rights.
func (s *AuthService) Register(req *RegisterRequest) (*TokenResponse, error) {
	var existing models.FantasyPlayer
	err := s.db.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("username already taken: %w", models.ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	isCommissioner := s.commissionerKey != "" && req.CommissionerKey == s.commissionerKey

	player := models.FantasyPlayer{
		Username:       req.Username,
		DisplayName:    req.DisplayName,
		PasswordHash:   string(hash),
		IsCommissioner: isCommissioner,
	}
	if err := s.db.Create(&player).Error; err != nil {
		return nil, err
	}

	return s.tokenResponse(&player)
}

// Login verifies credentials and issues a token.
func (s *AuthService) Login(req *LoginRequest) (*TokenResponse, error) {
	var player models.FantasyPlayer
	if err := s.db.Where("username = ?", req.Username).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("incorrect username or password: %w", models.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("incorrect username or password: %w", models.ErrUnauthorized)
	}

	return s.tokenResponse(&player)
}

// GetProfile returns the player for an authenticated request.
func (s *AuthService) GetProfile(playerID uint) (*models.FantasyPlayer, error) {
	var player models.FantasyPlayer
	if err := s.db.First(&player, playerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("player %d: %w", playerID, models.ErrNotFound)
		}
		return nil, err
	}
	return &player, nil
}

// ListPlayers returns every registered player, oldest first.
func (s *AuthService) ListPlayers() ([]models.FantasyPlayer, error) {
	var players []models.FantasyPlayer
	err := s.db.Order("id").Find(&players).Error
	return players, err
}

func (s *AuthService) tokenResponse(player *models.FantasyPlayer) (*TokenResponse, error) {
	token, err := GenerateToken(s.jwtSecret, player.ID, player.IsCommissioner)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken:    token,
		PlayerID:       player.ID,
		DisplayName:    player.DisplayName,
		IsCommissioner: player.IsCommissioner,
	}, nil
}
