package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gradebook/backend/internal/model"
	"gradebook/backend/pkg/jwt"
	"gradebook/backend/pkg/redis"
	"gradebook/backend/pkg/response"
)

// gin.Context 注入键
const (
	ContextUserID   = "user_id"
	ContextRole     = "role"
	ContextTokenJTI = "token_jti"
	ContextTokenExp = "token_exp"
)

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Token。
// 缺失凭证返回 401，结构无效的 Token 返回 422（两类失败对客户端可区分）；
// Redis 可用时额外检查登出撤销名单，已撤销的 Token 按 401 处理
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Missing authentication token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.UnprocessableEntity(c, "Invalid authentication token")
			c.Abort()
			return
		}

		claims, err := jwtMgr.Parse(parts[1])
		if err != nil {
			response.UnprocessableEntity(c, "Invalid authentication token")
			c.Abort()
			return
		}

		role, ok := model.ParseRole(claims.Role)
		if !ok {
			response.UnprocessableEntity(c, "Invalid authentication token")
			c.Abort()
			return
		}

		// 登出撤销名单；Redis 不可用时降级放行
		if rdb != nil {
			revoked, err := rdb.IsRevoked(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, "Token has been revoked")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, role)
		c.Set(ContextTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一；细粒度的归属判定在 service 层
func RoleAuth(allowedRoles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextRole)
		if !exists {
			response.Unauthorized(c, "Missing authentication token")
			c.Abort()
			return
		}

		userRole := value.(model.Role)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "Unauthorized access")
		c.Abort()
	}
}
