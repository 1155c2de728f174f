//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"go.uber.org/zap"
)

func InitializeApplication(cfg Config, logger *zap.Logger) (*Application, error) {
	wire.Build(AppSet)
	return nil, nil
}
