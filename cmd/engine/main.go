package main

import (
	"context"
	"flag"

	"github.com/spf13/viper"
	"github.com/tylerkaska112/tripnav/pkg/engine"
	"github.com/tylerkaska112/tripnav/pkg/http"
	"github.com/tylerkaska112/tripnav/pkg/http/usecases"
	"github.com/tylerkaska112/tripnav/pkg/logger"
	"github.com/tylerkaska112/tripnav/pkg/provider"
	"github.com/tylerkaska112/tripnav/pkg/util"
	"go.uber.org/zap"
)

var (
	useKilometers     = flag.Bool("use_kilometers", false, "render announcement distances in kilometers instead of miles")
	speedThresholdMph = flag.Float64("speed_threshold_mph", 75, "speed above which the speed warning raises")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}

	viper.SetDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("VALHALLA_URL", "https://valhalla1.openstreetmap.de")
	if err := util.ReadConfig(); err != nil {
		logger.Info("no config file found, using defaults", zap.Error(err))
	}

	routeProvider := provider.NewHTTPProvider(logger,
		viper.GetString("NOMINATIM_URL"), viper.GetString("VALHALLA_URL"))

	cfg := engine.DefaultConfig()
	cfg.UseKilometers = *useKilometers
	cfg.SpeedThresholdMph = *speedThresholdMph

	navEngine := engine.New(logger, cfg, routeProvider)

	api := http.NewServer(logger)
	navigationService := usecases.NewNavigationService(logger, navEngine)

	ctx, cleanup, err := NewContext()
	if err != nil {
		panic(err)
	}
	_, err = api.Use(ctx, logger, true, navigationService)
	if err != nil {
		panic(err)
	}

	signal := http.GracefulShutdown()

	logger.Info("tripnav Navigation Engine Server Stopped", zap.String("signal", signal.String()))
	cleanup()
}

func NewContext() (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
	}

	return ctx, cb, nil
}
