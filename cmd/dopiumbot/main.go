// Command dopiumbot runs the Dopium studio booking bot.
package main

import (
	"context"
	"log"

	corecmd "github.com/m3rciful/dopiumbot/core/cmd"
	"github.com/m3rciful/dopiumbot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.Load(path)
		},
		Bootstrap: func(ctx context.Context, cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(ctx, cfg.(*app.Config))
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
