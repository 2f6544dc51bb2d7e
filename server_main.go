//go:build server

// +build server

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"webweave/internal/websocket"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := NewApp()
	app.Startup(ctx)

	if msg := app.GetStartupError(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}

	wsServer := websocket.NewServer(app)
	app.SetEventHubBroadcaster(wsServer)

	port, err := wsServer.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start websocket server: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("WEBWEAVE_WS_READY:port=%d key=%s\n", port, wsServer.AuthKey())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	wsServer.Stop(ctx)
	app.Shutdown(ctx)
}
