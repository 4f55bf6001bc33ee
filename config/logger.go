package config

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// NewLogger returns a zap-backed logr.Logger. Debug mode uses the console
// encoder at V(1).
func NewLogger(debug bool) (logr.Logger, func(), error) {
	var (
		zl  *zap.Logger
		err error
	)
	if debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return logr.Discard(), func() {}, err
	}
	return zapr.NewLogger(zl).WithName("viara"), func() { _ = zl.Sync() }, nil
}
