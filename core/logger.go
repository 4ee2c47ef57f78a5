package core

import (
	"go.uber.org/zap"
)

// NewLogger returns a development logger when environment is "development"
// and a production JSON logger otherwise.
func NewLogger(environment string) (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if environment == "development" {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
	} else {
		logger, err = zap.NewProduction()
		if err != nil {
			return nil, err
		}
	}

	return logger.Sugar(), nil
}
