package util

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

var ErrInvalidID = errors.New("invalid id")

// ParseID 解析路径中的主键，0、负数和超出范围的值都视为非法
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return uint(id), nil
}

// ParamID 读取路径参数 name 作为主键；非法时直接写 400 并返回 false
func ParamID(c *gin.Context, name string) (uint, bool) {
	id, err := ParseID(c.Param(name))
	if err != nil {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
