package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/perfumestore/internal/domain/user"
	"github.com/xiebiao/perfumestore/pkg/jwt"
)

// SessionStore 登录会话与Token黑名单（生产实现在Redis）
type SessionStore interface {
	SaveSession(ctx context.Context, userID string, data map[string]interface{}, ttl time.Duration) error
	DeleteSession(ctx context.Context, userID string) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// LoginUseCase 登录：校验密码、签发Token对、记录会话
type LoginUseCase struct {
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore SessionStore
	sessionTTL   time.Duration
	logger       *zap.Logger
}

// NewLoginUseCase 创建登录用例，sessionTTL与Refresh Token有效期一致
func NewLoginUseCase(
	userService user.Service,
	jwtManager *jwt.Manager,
	sessionStore SessionStore,
	sessionTTL time.Duration,
	logger *zap.Logger,
) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		sessionTTL:   sessionTTL,
		logger:       logger.Named("user"),
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
	IP       string
}

// LoginResponse 登录结果
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	pair, err := uc.jwtManager.GenerateToken(u.ID, u.Email, u.Name)
	if err != nil {
		return nil, err
	}

	session := map[string]interface{}{
		"user_id":  u.ID,
		"email":    u.Email,
		"login_at": time.Now().Unix(),
		"ip":       req.IP,
	}
	// 会话只用于审计和强制下线，保存失败不影响登录
	if err := uc.sessionStore.SaveSession(ctx, u.ID, session, uc.sessionTTL); err != nil {
		uc.logger.Warn("保存会话失败", zap.String("user_id", u.ID), zap.Error(err))
	}

	return &LoginResponse{
		User:         UserInfo{ID: u.ID, Email: u.Email, Name: u.Name},
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// LogoutUseCase 登出
type LogoutUseCase struct {
	sessionStore SessionStore
	accessTTL    time.Duration
}

// NewLogoutUseCase 创建登出用例，accessTTL为Access Token有效期
func NewLogoutUseCase(sessionStore SessionStore, accessTTL time.Duration) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore, accessTTL: accessTTL}
}

// Execute 删除会话并把当前Access Token拉黑到其过期
func (uc *LogoutUseCase) Execute(ctx context.Context, userID, accessToken string) error {
	if err := uc.sessionStore.DeleteSession(ctx, userID); err != nil {
		return err
	}
	return uc.sessionStore.AddToBlacklist(ctx, accessToken, uc.accessTTL)
}

// RefreshTokenUseCase 用Refresh Token换Access Token
type RefreshTokenUseCase struct {
	jwtManager *jwt.Manager
}

// NewRefreshTokenUseCase 创建刷新用例
func NewRefreshTokenUseCase(jwtManager *jwt.Manager) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{jwtManager: jwtManager}
}

// RefreshTokenResponse 新的Access Token
type RefreshTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Execute 执行刷新
func (uc *RefreshTokenUseCase) Execute(ctx context.Context, refreshToken string) (*RefreshTokenResponse, error) {
	token, err := uc.jwtManager.RefreshAccessToken(refreshToken)
	if err != nil {
		return nil, err
	}
	return &RefreshTokenResponse{AccessToken: token}, nil
}
