package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ContextUserIDKey 和handler约定的key，值是uint64
const ContextUserIDKey = "userID"

var (
	errNoToken        = errors.New("请求未包含授权令牌")
	errMalformedToken = errors.New("授权令牌格式不正确")
	errInvalidToken   = errors.New("无效的授权令牌")
)

// 流程：1、从请求头取出Authorization 2、验证"Bearer [token]" 3、用secretKey验证token 4、把用户信息放入context
func AuthMiddleware(secretKey string) gin.HandlerFunc {
	key := []byte(secretKey)
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), key)
		if err != nil {
			// 立刻Abort，阻止后续的handler被执行
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth 有合法token就带上身份，没有或者不合法都按匿名放行
func OptionalAuth(secretKey string) gin.HandlerFunc {
	key := []byte(secretKey)
	return func(c *gin.Context) {
		if claims, err := parseBearer(c.GetHeader("Authorization"), key); err == nil {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

func parseBearer(authHeader string, secretKey []byte) (jwt.MapClaims, error) {
	if authHeader == "" {
		return nil, errNoToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errMalformedToken
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		// 确保签名方法是对称加密族
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("非预期的签名方法")
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	// jwt.MapClaims里的数字都会被解析成float64
	if id, ok := claims["user_id"].(float64); !ok || id <= 0 {
		return nil, errInvalidToken
	}
	return claims, nil
}

func setIdentity(c *gin.Context, claims jwt.MapClaims) {
	c.Set(ContextUserIDKey, uint64(claims["user_id"].(float64)))
	if name, ok := claims["name"].(string); ok {
		c.Set("name", name)
	}
}
