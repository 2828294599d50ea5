package web

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"time"

	"github.com/franciscotobar/rif-relay-server/core/logger"
	"github.com/franciscotobar/rif-relay-server/core/services"
	"github.com/franciscotobar/rif-relay-server/core/web/controllers"

	"github.com/gin-gonic/gin"
	uuid "github.com/satori/go.uuid"
)

func Router(app *services.Application) *gin.Engine {
	engine := gin.New()
	config := app.Store.Config
	basicAuth := gin.BasicAuth(gin.Accounts{config.BasicAuthUsername: config.BasicAuthPassword})
	engine.Use(loggerFunc(), gin.Recovery(), basicAuth)
	v1 := engine.Group("/v1")
	{
		tc := controllers.TransactionsController{App: app}
		v1.GET("/transactions", tc.Index)
		v1.POST("/transactions", tc.Create)

		bc := controllers.BoostsController{App: app}
		v1.POST("/boosts/:signer", bc.Create)
	}
	return engine
}

func loggerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		buf, _ := ioutil.ReadAll(c.Request.Body)
		rdr := bytes.NewBuffer(buf)
		c.Request.Body = ioutil.NopCloser(bytes.NewBuffer(buf))

		requestID := uuid.NewV4().String()
		start := time.Now()
		c.Next()
		end := time.Now()

		logger.Infow("Web request",
			"requestID", requestID,
			"method", c.Request.Method,
			"status", c.Writer.Status(),
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"body", readBody(rdr),
			"clientIP", c.ClientIP(),
			"errors", c.Errors.ByType(gin.ErrorTypePrivate).String(),
			"servedAt", end.Format("2006/01/02 - 15:04:05"),
			"latency", fmt.Sprintf("%v", end.Sub(start)),
		)
	}
}

func readBody(reader io.Reader) string {
	bytes, err := ioutil.ReadAll(reader)
	if err != nil {
		logger.Warn("unable to read request body: ", err)
		return ""
	}
	return string(bytes)
}
