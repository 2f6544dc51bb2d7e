//go:build !server

// +build !server

package main

import (
	"context"
	"embed"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed all:frontend/dist
var assets embed.FS

// wailsBroadcaster forwards hub events to the frontend over the wails
// runtime event bus.
type wailsBroadcaster struct {
	ctx context.Context
}

func (b *wailsBroadcaster) BroadcastEvent(eventType string, payload interface{}) {
	runtime.EventsEmit(b.ctx, eventType, payload)
}

func main() {
	app := NewApp()

	err := wails.Run(&options.App{
		Title:     "webweave",
		Width:     1200,
		Height:    760,
		MinWidth:  960,
		MinHeight: 600,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		LogLevel:           logger.DEBUG,
		LogLevelProduction: logger.INFO,
		OnStartup: func(ctx context.Context) {
			app.startup(ctx)
			app.SetEventHubBroadcaster(&wailsBroadcaster{ctx: ctx})
		},
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
