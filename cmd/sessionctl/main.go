package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/events"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/session"
	"github.com/jrsteele09/go-session-client/tokenstore"
)

const sessionFileName = "session.json"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func run(command string, args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c := config.New()
	displayAppname(c.GetAppName())

	bus := events.New()
	unsubscribe := bus.Subscribe(func(e events.Event) {
		log.Info().Str("event", string(e.Kind)).Msg("session changed")
	})
	defer unsubscribe()

	store, err := tokenstore.NewFileStore(filepath.Join(c.GetDataFolder(), sessionFileName), bus)
	if err != nil {
		return fmt.Errorf("opening token store: %w", err)
	}

	client := api.New(c.GetBaseURL(), api.WithHTTPClient(&http.Client{
		Timeout: time.Duration(c.GetHTTPTimeoutSeconds()) * time.Second,
	}))

	svc, err := session.New(store, client)
	if err != nil {
		return fmt.Errorf("creating session service: %w", err)
	}

	ctx := context.Background()
	switch command {
	case "register":
		return register(ctx, svc, args)
	case "login":
		return login(ctx, svc, args)
	case "whoami":
		return whoami(svc)
	case "call":
		return call(ctx, svc, args)
	case "refresh":
		_, err := svc.Refresh(ctx)
		if errors.Is(err, session.ErrSessionExpired) {
			fmt.Println("Session expired, please log in again.")
			return nil
		}
		return err
	case "logout":
		if err := svc.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func register(ctx context.Context, svc *session.Service, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: sessionctl register NAME EMAIL PASSWORD [AVATAR]")
	}
	req := api.RegisterRequest{Name: args[0], Email: args[1], Password: args[2]}
	if len(args) > 3 {
		req.Avatar = args[3]
	}

	profile, err := svc.Register(ctx, req)
	var validationErr *session.ValidationError
	if errors.As(err, &validationErr) {
		fmt.Printf("Registration rejected: %s\n", validationErr.Reason)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("Registered %s (%s). Log in to start a session.\n", profile.DisplayName(), profile.ID)
	return nil
}

func login(ctx context.Context, svc *session.Service, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: sessionctl login IDENTIFIER SECRET")
	}
	sess, err := svc.Login(ctx, args[0], args[1])
	if errors.Is(err, session.ErrInvalidCredentials) {
		fmt.Println("Invalid credentials.")
		return nil
	}
	if err != nil {
		return err
	}
	name := sess.User.DisplayName()
	if name == "" {
		name = args[0]
	}
	fmt.Printf("Welcome, %s.\n", name)
	return nil
}

func whoami(svc *session.Service) error {
	if !svc.IsAuthenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	profile, ok := svc.CurrentUser()
	if !ok {
		fmt.Println("Logged in (no cached profile).")
	} else {
		fmt.Printf("%s <%s>\n", profile.DisplayName(), profile.Email)
	}
	if expiry, ok := svc.AccessTokenExpiresAt(); ok {
		fmt.Printf("Access token expires %s\n", expiry.Format(time.RFC1123))
	}
	return nil
}

func call(ctx context.Context, svc *session.Service, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: sessionctl call METHOD PATH [BODY]")
	}
	req := &api.Request{Method: args[0], Path: args[1]}
	if len(args) > 2 {
		req.Body = []byte(args[2])
	}

	resp, err := svc.Executor().Do(ctx, req)
	if errors.Is(err, session.ErrSessionExpired) {
		fmt.Println("Session expired, please log in again.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("%d\n%s\n", resp.StatusCode, resp.Body)
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: sessionctl COMMAND [ARGS]

commands:
  register NAME EMAIL PASSWORD [AVATAR]
  login IDENTIFIER SECRET
  whoami
  call METHOD PATH [BODY]
  refresh
  logout`)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
