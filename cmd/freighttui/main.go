package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/freightmsg/internal/api"
	"github.com/matheus3301/freightmsg/internal/config"
	"github.com/matheus3301/freightmsg/internal/deeplink"
	"github.com/matheus3301/freightmsg/internal/session"
	"github.com/matheus3301/freightmsg/internal/tui"
	"github.com/matheus3301/freightmsg/internal/tui/client"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	linkFlag := flag.String("link", "", "deep link query to open on start, e.g. userId=7&shipmentId=42")
	noStart := flag.Bool("no-start", false, "do not start a daemon when none is running")
	flag.Parse()

	config.LoadEnvFiles(session.EnvPath(), ".env")

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var link *api.LinkRequest
	if *linkFlag != "" {
		l, err := deeplink.ParseQuery(*linkFlag)
		if err != nil || l.Empty() {
			fmt.Fprintf(os.Stderr, "error: invalid --link %q\n", *linkFlag)
			os.Exit(1)
		}
		link = &api.LinkRequest{UserID: l.UserID, ShipmentID: l.ShipmentID, Prefill: l.Prefill}
	}

	if !client.Probe(session.SocketPath(sessionName)) && !*noStart {
		fmt.Fprintf(os.Stderr, "daemon not running for session %q, starting...\n", sessionName)
	}
	c, err := client.Connect(sessionName, client.Options{Autostart: !*noStart})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	app := tui.NewApp(c, sessionName)
	if link != nil {
		app.OpenLink(*link)
	}
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
