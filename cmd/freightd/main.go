package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/matheus3301/freightmsg/internal/config"
	"github.com/matheus3301/freightmsg/internal/daemon"
	"github.com/matheus3301/freightmsg/internal/deeplink"
	"github.com/matheus3301/freightmsg/internal/session"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	linkFlag := flag.String("link", "", "deep link query to open after the first refresh, e.g. userId=7&shipmentId=42")
	flag.Parse()

	config.LoadEnvFiles(session.EnvPath(), ".env")

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	var link deeplink.Link
	if *linkFlag != "" {
		l, err := deeplink.ParseQuery(*linkFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid --link: %v\n", err)
			os.Exit(1)
		}
		link = l
	}

	app := fx.New(
		daemon.Module(daemon.Params{SessionName: sessionName, Link: link}),
	)

	app.Run()
}
