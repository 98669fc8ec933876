package dto

// RegisterRequest HTTP层注册请求
// 密码强度（字母+数字）由领域服务校验
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required,min=8,max=20" example:"Scent2026"`
	Name     string `json:"name" binding:"required,min=2,max=50" example:"Ada Obi"`
}

// LoginRequest HTTP层登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"Scent2026"`
}

// RefreshTokenRequest 刷新Access Token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
