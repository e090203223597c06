package service

import (
	"Orion_Video/internal/model"
	"Orion_Video/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput 注册参数，头像路径由上传环节给出，可以为空
type RegisterInput struct {
	Name     string `validate:"required,max=64"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Image    string
}

// Profile 用户资料和他的视频引用列表（按发布先后）
type Profile struct {
	User     *model.User
	VideoIDs []uint64
}

// 用户服务接口：1、注册 2、登录 3、个人资料
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (string, *model.User, error)
	GetProfile(ctx context.Context, userID uint64) (*Profile, error)
}

type userService struct {
	userRepo  repository.UserRepository
	secretKey []byte
	tokenTTL  time.Duration
}

func NewUserService(userRepo repository.UserRepository, secretKey string, tokenTTL time.Duration) UserService {
	return &userService{
		userRepo:  userRepo,
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
	}
}

// 注册逻辑：1、校验参数 2、检查邮箱是否已注册 3、密码加密存储 4、插入数据库
func (s *userService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, invalidInput(err)
	}
	_, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internalError("查询用户", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError("密码加密", err)
	}
	newUser := &model.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashedPassword),
		Image:    in.Image,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		// 并发注册同一个邮箱，唯一索引兜底
		if repository.IsDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, internalError("创建用户", err)
	}
	return newUser, nil
}

// 登录逻辑：1、按邮箱找用户 2、比对密码哈希 3、签发jwt
func (s *userService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrBadCredentials
		}
		return "", nil, internalError("查询用户", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrBadCredentials
	}

	// Payload不加密，不能放密码
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"name":    user.Name,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", nil, internalError("签发令牌", err)
	}
	return tokenString, user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uint64) (*Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalError("查询用户", err)
	}
	refs, err := s.userRepo.ListVideoRefs(ctx, userID)
	if err != nil {
		return nil, internalError("查询视频引用", err)
	}
	return &Profile{User: user, VideoIDs: refs}, nil
}
