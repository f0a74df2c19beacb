package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"log/syslog"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logrusSyslog "github.com/sirupsen/logrus/hooks/syslog"
)

type Logger struct {
	*logrus.Logger
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func NewLogger(c *utils.Config) *Logger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.JSONFormatter{PrettyPrint: c.Env == "development"})
	if c.Env == "production" {
		log.SetLevel(logrus.InfoLevel)
	}

	if c.Papertrail != "" {
		hook, err := logrusSyslog.NewSyslogHook("udp", c.Papertrail, syslog.LOG_INFO, c.PapertrailAppName)
		if err != nil {
			log.Error("Unable to connect to Papertrail")
		} else {
			log.Hooks.Add(hook)
		}
	}

	return &Logger{
		log,
	}
}

// Wrap adopts an existing logrus logger, e.g. the null logger used in tests.
func Wrap(l *logrus.Logger) *Logger {
	return &Logger{l}
}

// Tampering records a rejected signature. These are security events, not
// ordinary job failures.
func (l *Logger) Tampering(fields logrus.Fields, msg string) {
	f := logrus.Fields{"event": "signature_invalid"}
	for k, v := range fields {
		f[k] = v
	}
	l.WithFields(f).Warn(msg)
}

func (l *Logger) LoggingMiddleWare() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = c.GetRawData()
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   statusCode,
			"duration": duration,
		}

		// RPC params carry signatures and amounts; only the method is logged.
		var rpc struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(requestBody, &rpc); err == nil && rpc.Method != "" {
			fields["rpc_method"] = rpc.Method
		}

		var resp struct {
			Error *struct {
				Code int `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(w.body.Bytes(), &resp); err == nil && resp.Error != nil {
			fields["rpc_error"] = resp.Error.Code
		}

		l.WithFields(fields).Info("Request-Response")
	}
}
