package config

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/mmagrifocus/poultry_backend/appctx"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

// LogError emits one structured error line. The correlation id travels in
// ctx (set per request by the server middleware, or per run by the cmd
// tools) so every emitted error can be tied back to its request.
func LogError(ctx context.Context, logger *logrus.Logger, moduleName string, funcName string, logContext string, data any, err error) {
	fields := logrus.Fields{
		"module":   moduleName,
		"funcName": funcName,
		"context":  logContext,
	}
	if cid, ok := appctx.GetString(ctx, appctx.ContextKeyCorrelationId); ok && cid != "" {
		fields["correlation_id"] = cid
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
