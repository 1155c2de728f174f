//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var CoreInfraSet = wire.NewSet(
	NewMetricsRegistry,
	NewMetrics,
)

var CredentialSet = wire.NewSet(
	NewStaticCredentials,
	NewResolver,
	NewClientFactory,
	NewClientManager,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	CredentialSet,
	NewToolsets,
	NewGateway,
	NewApplication,
)
