// Package logger constructs the application's zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a production logger in production, a development logger
// otherwise.
func New(appEnv string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if appEnv == "production" {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}
