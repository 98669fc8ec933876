// Package handler HTTP处理器
//
// Handler只做HTTP相关的事情：绑定参数、调用应用层用例、写统一响应。
// 业务规则在domain和application层。
package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/xiebiao/perfumestore/pkg/errors"
	"github.com/xiebiao/perfumestore/pkg/response"
)

// bindFailed 参数绑定/校验失败
func bindFailed(c *gin.Context, err error) {
	response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "invalid parameters: "+err.Error())
}
