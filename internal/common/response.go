package common

import "github.com/gin-gonic/gin"

func OK(c *gin.Context, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["success"] = true
	c.JSON(200, data)
}

func Fail(c *gin.Context, httpStatus int, msg string) {
	c.JSON(httpStatus, gin.H{
		"success": false,
		"error":   msg,
	})
}
