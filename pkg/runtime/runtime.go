package runtime

import (
	"context"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/client"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/service"
)

// Start brings up the toggle client and then serves the sidecar until ctx
// is cancelled. The client may be nil in offline mode, where the service's
// toggle source is a bootstrap file provider instead.
func Start(ctx context.Context, svc service.IService, cli *client.Client) error {
	if cli != nil {
		if err := cli.Start(ctx); err != nil {
			return err
		}
		defer cli.Stop()
	}
	return svc.Serve(ctx)
}
