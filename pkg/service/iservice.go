package service

import (
	"context"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/model"
)

// ToggleSource is anything that can list the current toggle snapshot: the
// synchronizing client, or a bootstrap file provider in offline mode.
type ToggleSource interface {
	GetAllToggles() []model.Toggle
}

type IService interface {
	Serve(ctx context.Context) error
}
