package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/config"
	"cribbage/internal/domain"
	"cribbage/internal/replica"
	"cribbage/internal/snapshot"
	"cribbage/internal/table"
	"cribbage/internal/transport/ws"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
)

const (
	hostID  = "p1"
	guestID = "p2"

	defaultRelay = "ws://localhost:8080"
	// resyncInterval republishes the host's state; the relay drops frames
	// while the guest is not connected.
	resyncInterval = 3 * time.Second
)

type peerFlags struct {
	relay  string
	gameID string
	secret string
}

func (f *peerFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.relay, "relay", defaultRelay, "relay server base url")
	fs.StringVar(&f.gameID, "game", "", "game id shared by both peers")
	fs.StringVar(&f.secret, "secret", os.Getenv("CRIBBAGE_SNAPSHOT_SECRET"), "shared secret for signed snapshots")
}

func peerURL(relay, gameID string) (string, error) {
	base, err := url.Parse(strings.TrimRight(relay, "/"))
	if err != nil {
		return "", fmt.Errorf("relay url: %w", err)
	}
	switch base.Scheme {
	case "http":
		base.Scheme = "ws"
	case "https":
		base.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("relay url %q: unsupported scheme", relay)
	}
	return base.String() + "/ws/peers/" + url.PathEscape(gameID), nil
}

func runHost(args []string, logger *slog.Logger) error {
	var pf peerFlags
	fs := flag.NewFlagSet("host", flag.ContinueOnError)
	pf.register(fs)
	name := fs.String("name", "Host", "your display name")
	guest := fs.String("guest", "Guest", "display name for the joining player")
	bots := fs.Int("bots", 0, "extra bot seats (0-2)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if pf.gameID == "" {
		pf.gameID = uuid.NewString()
	}
	if *bots < 0 || *bots > app.MaxPlayersPerGame-2 {
		return fmt.Errorf("-bots must be between 0 and %d", app.MaxPlayersPerGame-2)
	}
	target, err := peerURL(pf.relay, pf.gameID)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	link, err := ws.Dial(ctx, target, logger)
	if err != nil {
		return err
	}
	defer link.Close()

	cfg := config.GetGameConfig()
	seats := []app.PlayerSeat{
		{ID: hostID, Name: *name, IsHuman: true},
		{ID: guestID, Name: *guest, IsHuman: true},
	}
	for i := 0; i < *bots; i++ {
		identity := bot.GetBotIdentity(i)
		seats = append(seats, app.PlayerSeat{ID: identity.UserID, Name: identity.DisplayName})
	}
	svc := app.NewService(nil)
	svc.CutForDeal = cfg.CutForDeal
	g, _, err := svc.NewGame(pf.gameID, seats)
	if err != nil {
		return err
	}
	g.AuthorityID = hostID

	tbl, err := table.New(svc, g, table.Options{
		Pacing:   cfg.Pacing(),
		BotLevel: bot.ParseBotLevel(cfg.BotLevel),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	updates := make(chan struct{}, 1)
	tbl.OnTransition(func(*domain.GameState) { notify(updates) })

	var signer replica.Signer
	if pf.secret != "" {
		signer = snapshot.NewSigner(pf.secret, "")
	}
	out := replica.NewRetryPublisher(link, cfg.PublishAttempts, cfg.PublishBackoff(), logger)
	auth := replica.NewAuthority(tbl, []string{guestID}, out, signer, logger)

	go auth.Run(ctx)
	go func() {
		defer stop()
		if err := link.Serve(ctx, auth.HandleMessage); err != nil && ctx.Err() == nil {
			logger.Error("peer link lost", "err", err)
		}
	}()
	go func() {
		ticker := time.NewTicker(resyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				auth.Resync()
			}
		}
	}()
	tbl.Start()

	pterm.Info.Printfln("Hosting game %s. The other player runs: cribbage join -relay %s -game %s", pf.gameID, pf.relay, pf.gameID)
	return playLoop(ctx, tableController{tbl}, hostID, updates)
}

func runJoin(args []string, logger *slog.Logger) error {
	var pf peerFlags
	fs := flag.NewFlagSet("join", flag.ContinueOnError)
	pf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if pf.gameID == "" {
		return errors.New("-game is required")
	}
	target, err := peerURL(pf.relay, pf.gameID)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	link, err := ws.Dial(ctx, target, logger)
	if err != nil {
		return err
	}
	defer link.Close()

	cfg := config.GetGameConfig()
	var verifier replica.Verifier
	if pf.secret != "" {
		verifier = snapshot.NewSigner(pf.secret, "")
	}
	out := replica.NewRetryPublisher(link, cfg.PublishAttempts, cfg.PublishBackoff(), logger)
	mirror := replica.NewMirror([]string{guestID}, out, verifier, logger)
	updates := make(chan struct{}, 1)
	mirror.OnState(func(*domain.GameState) { notify(updates) })

	go func() {
		defer stop()
		if err := link.Serve(ctx, mirror.HandleMessage); err != nil && ctx.Err() == nil {
			logger.Error("peer link lost", "err", err)
		}
	}()

	pterm.Info.Printfln("Joined game %s, waiting for the host ...", pf.gameID)
	return playLoop(ctx, mirror, guestID, updates)
}

// notify wakes the play loop without blocking; one pending wake is enough
// because the loop always reads the newest state.
func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
