/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Quotagate is an HTTP service that admits requests of each caller within the time-windowed quota
// proportional to the caller's priority.
package main

import (
	"flag"
	"fmt"
	golog "log"

	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/restapi"
	"github.com/acronis/go-quotagate/service"
)

func main() {
	cfgPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		golog.Fatal(err)
	}
}

func run(cfgPath string) error {
	cfg, err := loadAppConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	restapi.MustInitAndRegisterMetrics(metricsNamespace)
	defer restapi.UnregisterMetrics()

	return service.New(logger, a).Start()
}
