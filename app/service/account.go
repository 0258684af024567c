package service

import (
	"context"
	"strings"
	"time"

	"github.com/tubeworks/ms-go-accounts/app/apperror"
	"github.com/tubeworks/ms-go-accounts/app/entity"
	"github.com/tubeworks/ms-go-accounts/app/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)
	FindByID(ctx context.Context, id bson.ObjectID) (*entity.User, error)
	SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error
	RotateRefreshToken(ctx context.Context, id bson.ObjectID, oldToken, newToken string) (bool, error)
	ClearRefreshToken(ctx context.Context, id bson.ObjectID) error
}

type mediaUploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

type LoginInput struct {
	Username string
	Email    string
	Password string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*entity.User, error)
	Login(ctx context.Context, in LoginInput) (*entity.User, *TokenPair, error)
	Logout(ctx context.Context, userID bson.ObjectID) error
	Refresh(ctx context.Context, incomingToken string) (*TokenPair, error)
	ValidateAccessToken(tokenString string) (*AccessClaims, error)
}

type accountService struct {
	userRepo userRepository
	uploader mediaUploader
	hasher   PasswordHasher
	tokens   *TokenIssuer
}

func NewAccountService(userRepo userRepository, uploader mediaUploader, hasher PasswordHasher, tokens *TokenIssuer) AccountService {
	return &accountService{
		userRepo: userRepo,
		uploader: uploader,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Register creates the account. No tokens are issued, registering does not
// log the user in.
func (s *accountService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))

	if fullName == "" || email == "" || username == "" || in.Password == "" {
		return nil, apperror.Validation("all fields are required")
	}
	if in.AvatarPath == "" {
		return nil, apperror.Validation("avatar image is required")
	}

	existing, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, apperror.From(err)
	}
	if existing != nil {
		return nil, apperror.Conflict("user with email or username already exists")
	}

	avatarURL, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		logrus.WithError(err).WithField("username", username).Error("avatar upload failed")
		return nil, apperror.Internal("failed to upload avatar image")
	}

	coverImageURL := ""
	if in.CoverImagePath != "" {
		coverImageURL, err = s.uploader.Upload(ctx, in.CoverImagePath)
		if err != nil {
			// Cover image is optional, a failed upload does not abort
			// registration.
			logrus.WithError(err).WithField("username", username).Warn("cover image upload failed")
			coverImageURL = ""
		}
	}

	hashedPassword, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.From(err)
	}

	now := time.Now()
	user := &entity.User{
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Password:   hashedPassword,
		Avatar:     avatarURL,
		CoverImage: coverImageURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apperror.Conflict("user with email or username already exists")
		}
		return nil, apperror.From(err)
	}

	return user, nil
}

func (s *accountService) Login(ctx context.Context, in LoginInput) (*entity.User, *TokenPair, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" && email == "" {
		return nil, nil, apperror.Validation("username or email is required")
	}

	user, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, nil, apperror.From(err)
	}
	if user == nil {
		return nil, nil, apperror.NotFound("user does not exist")
	}

	if err = s.hasher.Compare(in.Password, user.Password); err != nil {
		if IsPasswordMismatch(err) {
			return nil, nil, apperror.Unauthorized("invalid user credentials")
		}
		return nil, nil, apperror.From(err)
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, nil, apperror.From(err)
	}

	if err = s.userRepo.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, nil, apperror.From(err)
	}

	return user, pair, nil
}

// Logout clears the stored refresh token unconditionally, so a second call
// is a no-op.
func (s *accountService) Logout(ctx context.Context, userID bson.ObjectID) error {
	if err := s.userRepo.ClearRefreshToken(ctx, userID); err != nil {
		return apperror.From(err)
	}
	return nil
}

// Refresh rotates the token pair. The incoming token must verify AND equal
// the stored value; the rotation itself is a conditional swap on the old
// value, so a token can be spent exactly once.
func (s *accountService) Refresh(ctx context.Context, incomingToken string) (*TokenPair, error) {
	if incomingToken == "" {
		return nil, apperror.Unauthorized("unauthorized request")
	}

	claims, err := s.tokens.ParseRefreshToken(incomingToken)
	if err != nil {
		return nil, apperror.Unauthorized(err.Error())
	}

	userID, err := bson.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.From(err)
	}
	if user == nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	if user.RefreshToken != incomingToken {
		return nil, apperror.Unauthorized("refresh token is expired or used")
	}

	pair, err := s.issueTokenPair(user)
	if err != nil {
		return nil, apperror.From(err)
	}

	rotated, err := s.userRepo.RotateRefreshToken(ctx, user.ID, incomingToken, pair.RefreshToken)
	if err != nil {
		return nil, apperror.From(err)
	}
	if !rotated {
		return nil, apperror.Unauthorized("refresh token is expired or used")
	}

	return pair, nil
}

func (s *accountService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	return s.tokens.ParseAccessToken(tokenString)
}

func (s *accountService) issueTokenPair(user *entity.User) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
