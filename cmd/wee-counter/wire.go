//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/weegigs/wee-counter-go/counter"
	"github.com/weegigs/wee-counter-go/support"
)

func initialize(ctx context.Context, cfg support.Config) (*application, func(), error) {
	panic(wire.Build(counter.Live, providers))
}
