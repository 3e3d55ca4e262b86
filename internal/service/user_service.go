package service

import (
	"context"
	"errors"

	"github.com/haierkeys/block-journal-sync-service/internal/domain"
	"github.com/haierkeys/block-journal-sync-service/internal/dto"
	pkgapp "github.com/haierkeys/block-journal-sync-service/pkg/app"
	"github.com/haierkeys/block-journal-sync-service/pkg/code"
	"github.com/haierkeys/block-journal-sync-service/pkg/util"

	"go.uber.org/zap"
)

// UserService 用户服务接口
type UserService interface {
	// Register 用户注册，成功后直接签发 Token
	Register(ctx context.Context, ip string, params *dto.UserRegisterRequest) (*dto.UserResponse, error)

	// Login 用户登录，Credentials 可以是邮箱或用户名
	Login(ctx context.Context, ip string, params *dto.UserLoginRequest) (*dto.UserResponse, error)

	// ChangePassword 修改密码
	ChangePassword(ctx context.Context, uid int64, params *dto.UserChangePasswordRequest) error

	// Info 获取用户信息
	Info(ctx context.Context, uid int64) (*dto.UserResponse, error)
}

// userService 实现 UserService 接口
type userService struct {
	repo   domain.UserRepository
	tokens pkgapp.TokenManager
	logger *zap.Logger
	cfg    *UserServiceConfig
}

// NewUserService 创建 UserService 实例
func NewUserService(repo domain.UserRepository, tokens pkgapp.TokenManager, lg *zap.Logger, cfg *UserServiceConfig) UserService {
	return &userService{
		repo:   repo,
		tokens: tokens,
		logger: lg,
		cfg:    cfg,
	}
}

var _ UserService = (*userService)(nil)

// Register 用户注册
func (s *userService) Register(ctx context.Context, ip string, params *dto.UserRegisterRequest) (*dto.UserResponse, error) {
	if s.cfg != nil && !s.cfg.RegisterIsEnable {
		return nil, code.ErrorUserRegisterDisabled
	}
	if !util.IsValidUsername(params.Username) {
		return nil, code.ErrorUserUsernameNotValid
	}
	if params.Password != params.ConfirmPassword {
		return nil, code.ErrorUserPasswordNotMatch
	}

	emailUser, err := s.repo.GetByEmail(ctx, params.Email)
	if err != nil {
		return nil, code.ErrorDBQuery
	}
	if emailUser != nil {
		return nil, code.ErrorUserEmailAlreadyExists
	}

	nameUser, err := s.repo.GetByUsername(ctx, params.Username)
	if err != nil {
		return nil, code.ErrorDBQuery
	}
	if nameUser != nil {
		return nil, code.ErrorUserAlreadyExists
	}

	password, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return nil, code.ErrorPasswordNotValid
	}

	user, err := s.repo.Create(ctx, &domain.User{
		Email:    params.Email,
		Username: params.Username,
		Password: password,
	})
	if err != nil {
		s.logger.Error("user create failed", zap.String("username", params.Username), zap.Error(err))
		return nil, code.ErrorDBQuery
	}

	token, err := s.tokens.Generate(user.UID, user.Username, ip)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("uid", user.UID), zap.String("username", user.Username))
	return &dto.UserResponse{
		UID:      user.UID,
		Email:    user.Email,
		Username: user.Username,
		Token:    token,
	}, nil
}

// Login 用户登录
func (s *userService) Login(ctx context.Context, ip string, params *dto.UserLoginRequest) (*dto.UserResponse, error) {
	var user *domain.User
	var err error

	if util.IsValidEmail(params.Credentials) {
		user, err = s.repo.GetByEmail(ctx, params.Credentials)
	} else {
		user, err = s.repo.GetByUsername(ctx, params.Credentials)
	}
	if err != nil {
		return nil, code.ErrorDBQuery
	}
	if user == nil {
		return nil, code.ErrorUserNotFound
	}

	if !util.CheckPasswordHash(user.Password, params.Password) {
		return nil, code.ErrorUserLoginPasswordFailed
	}

	token, err := s.tokens.Generate(user.UID, user.Username, ip)
	if err != nil {
		return nil, err
	}

	return &dto.UserResponse{
		UID:      user.UID,
		Email:    user.Email,
		Username: user.Username,
		Token:    token,
	}, nil
}

// ChangePassword 修改密码
func (s *userService) ChangePassword(ctx context.Context, uid int64, params *dto.UserChangePasswordRequest) error {
	if params.Password != params.ConfirmPassword {
		return code.ErrorUserPasswordNotMatch
	}

	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return code.ErrorUserNotFound
		}
		return code.ErrorDBQuery
	}

	if !util.CheckPasswordHash(user.Password, params.OldPassword) {
		return code.ErrorUserOldPasswordFailed
	}

	password, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return code.ErrorPasswordNotValid
	}

	return s.repo.UpdatePassword(ctx, uid, password)
}

// Info 获取用户信息
func (s *userService) Info(ctx context.Context, uid int64) (*dto.UserResponse, error) {
	user, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, code.ErrorUserNotFound
		}
		return nil, code.ErrorDBQuery
	}
	return &dto.UserResponse{
		UID:      user.UID,
		Email:    user.Email,
		Username: user.Username,
	}, nil
}
