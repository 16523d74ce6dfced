package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Mistic92/unleash-proxy-client-go/pkg/bootstrap"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/client"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/model"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/runtime"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/service"
	"github.com/Mistic92/unleash-proxy-client-go/pkg/storage"
)

var (
	proxyPort       int32
	refreshInterval int
	metricsInterval int
	storagePath     string
	bootstrapFile   string
	offline         bool
)

// buildSource assembles the toggle source the sidecar serves from: a
// synchronizing client upstream, or a watched bootstrap file when offline.
func buildSource(ctx context.Context) (service.ToggleSource, *client.Client, error) {
	var seed []model.Toggle
	var provider *bootstrap.Provider
	if bootstrapFile != "" {
		provider = bootstrap.NewProvider(bootstrapFile, log.StandardLogger())
		toggles, err := provider.Load()
		if err != nil {
			return nil, nil, err
		}
		seed = toggles
	}

	if offline {
		if provider == nil {
			return nil, nil, fmt.Errorf("offline mode requires --bootstrap")
		}
		if err := provider.Watch(ctx, nil); err != nil {
			return nil, nil, err
		}
		log.Infof("Serving %d toggles from %s, no upstream configured", len(seed), bootstrapFile)
		return provider, nil, nil
	}

	var store storage.Store
	if storagePath != "" {
		bolt, err := storage.NewBolt(storagePath)
		if err != nil {
			return nil, nil, err
		}
		store = bolt
	}

	cli, err := client.New(client.Config{
		URL:             viper.GetString("url"),
		ClientKey:       viper.GetString("client-key"),
		AppName:         viper.GetString("app-name"),
		Environment:     viper.GetString("environment"),
		RefreshInterval: time.Duration(refreshInterval) * time.Second,
		MetricsInterval: time.Duration(metricsInterval) * time.Second,
		Storage:         store,
		Bootstrap:       seed,
	})
	if err != nil {
		return nil, nil, err
	}
	return cli, cli, nil
}

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Synchronize toggles and re-serve them over HTTP",
	Long:  ``,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		source, cli, err := buildSource(ctx)
		if err != nil {
			log.Fatal(err)
		}

		svc := &service.ProxyService{
			ProxyServiceConfiguration: &service.ProxyServiceConfiguration{
				Port: proxyPort,
			},
			Source: source,
			Logger: log.StandardLogger(),
		}

		errc := make(chan error)
		go func() {
			errc <- func() error {
				c := make(chan os.Signal, 1)
				signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
				return fmt.Errorf("%s", <-c)
			}()
		}()
		go func() {
			errc <- runtime.Start(ctx, svc, cli)
		}()

		if err := <-errc; err != nil {
			cancel()
			log.Print(err.Error())
		}
	},
}

func init() {
	proxyCmd.Flags().String("url", "", "Upstream toggle endpoint url")
	proxyCmd.Flags().String("client-key", "", "Client key sent on every request")
	proxyCmd.Flags().String("app-name", "", "Application name reported to the upstream")
	proxyCmd.Flags().String("environment", "", "Environment tag (default \"default\")")
	proxyCmd.Flags().Int32VarP(&proxyPort, "port", "p", 4242, "Port to serve the sidecar on")
	proxyCmd.Flags().IntVar(&refreshInterval, "refresh-interval", 30, "Toggle refresh interval in seconds")
	proxyCmd.Flags().IntVar(&metricsInterval, "metrics-interval", 30, "Metrics upload interval in seconds")
	proxyCmd.Flags().StringVar(&storagePath, "storage", "", "Path to a bbolt database for the toggle cache")
	proxyCmd.Flags().StringVarP(&bootstrapFile, "bootstrap", "f", "", "Toggle definition file used to seed the snapshot")
	proxyCmd.Flags().BoolVar(&offline, "offline", false, "Serve the bootstrap file only, watching it for changes")
	viper.BindPFlag("url", proxyCmd.Flags().Lookup("url"))
	viper.BindPFlag("client-key", proxyCmd.Flags().Lookup("client-key"))
	viper.BindPFlag("app-name", proxyCmd.Flags().Lookup("app-name"))
	viper.BindPFlag("environment", proxyCmd.Flags().Lookup("environment"))
	rootCmd.AddCommand(proxyCmd)
}
