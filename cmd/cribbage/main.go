// Command cribbage scores hands, suggests discards and pegging plays, runs
// bot-versus-bot simulations, and plays two-peer games over the relay.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cribbage/internal/bot"
	"cribbage/internal/config"
	"cribbage/internal/domain"
	"cribbage/internal/logging"

	"github.com/pterm/pterm"
)

const (
	gameConfigPath    = "data/game_config.json"
	botIdentitiesPath = "data/bot_identities.json"
)

type command struct {
	name  string
	usage string
	run   func(args []string, logger *slog.Logger) error
}

var commands = []command{
	{"score", "score [-cut CARD] [-crib] CARD...", runScore},
	{"analyze", "analyze [-dealer] [-players N] [-top N] CARD...", runAnalyze},
	{"peg", "peg -hand CARDS [-stack CARDS] [-total N]", runPeg},
	{"simulate", "simulate [-games N] [-players N] [-level easy|good] [-seed N]", runSimulate},
	{"host", "host [-relay URL] [-game ID] [-name NAME] [-secret S]", runHost},
	{"join", "join -game ID [-relay URL] [-secret S]", runJoin},
}

func main() {
	logger := logging.New(os.Getenv("CRIBBAGE_LOG_LEVEL"), "text")

	if err := config.LoadGameConfig(gameConfigPath); err != nil {
		logger.Debug("using default game config", "err", err)
	}
	if err := bot.LoadIdentities(botIdentitiesPath); err != nil {
		logger.Debug("using generated bot identities", "err", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	for _, cmd := range commands {
		if cmd.name != os.Args[1] {
			continue
		}
		if err := cmd.run(os.Args[2:], logger); err != nil {
			pterm.Error.Println(err)
			os.Exit(1)
		}
		return
	}
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	for _, cmd := range commands {
		fmt.Fprintf(os.Stderr, "  cribbage %s\n", cmd.usage)
	}
}

// parseCardList accepts codes separated by commas and/or spaces, in any case.
func parseCardList(args ...string) ([]domain.Card, error) {
	var codes []string
	for _, arg := range args {
		for _, f := range strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' }) {
			codes = append(codes, cardCode(f))
		}
	}
	return domain.ParseCards(codes)
}

// cardCode normalises typed input to the exact code form the engine accepts.
func cardCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
