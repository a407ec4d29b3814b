package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"cribbage/internal/analysis"
	"cribbage/internal/bot"
	"cribbage/internal/domain"
	"cribbage/internal/history"

	"github.com/pterm/pterm"
)

func runScore(args []string, _ *slog.Logger) error {
	fs := flag.NewFlagSet("score", flag.ContinueOnError)
	cutCode := fs.String("cut", "", "cut card code, e.g. 5H")
	isCrib := fs.Bool("crib", false, "score as the crib")
	if err := fs.Parse(args); err != nil {
		return err
	}
	hand, err := parseCardList(fs.Args()...)
	if err != nil {
		return err
	}
	if len(hand) != 4 {
		return fmt.Errorf("a counted hand holds 4 cards, got %d", len(hand))
	}
	var cut *domain.Card
	if *cutCode != "" {
		c, err := domain.ParseCard(cardCode(*cutCode))
		if err != nil {
			return err
		}
		cut = &c
	}
	if domain.HasDuplicates(append(hand[:len(hand):len(hand)], cutCards(cut)...)) {
		return errors.New("hand and cut repeat a card")
	}

	bd := domain.Score(hand, cut, *isCrib)
	return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Fifteens", "Pairs", "Runs", "Flush", "Nobs", "Total"},
		{itoa(bd.Fifteens), itoa(bd.Pairs), itoa(bd.Runs), itoa(bd.Flush), itoa(bd.Nobs), pterm.LightGreen(itoa(bd.Total))},
	}).Render()
}

func cutCards(cut *domain.Card) []domain.Card {
	if cut == nil {
		return nil
	}
	return []domain.Card{*cut}
}

func runAnalyze(args []string, _ *slog.Logger) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	dealer := fs.Bool("dealer", false, "analyze as the dealer")
	players := fs.Int("players", 2, "number of players")
	top := fs.Int("top", 5, "options to show")
	historyPath := fs.String("history", os.Getenv("CRIBBAGE_HISTORY_DB"), "SQLite file to record the best discard in")
	if err := fs.Parse(args); err != nil {
		return err
	}
	hand, err := parseCardList(fs.Args()...)
	if err != nil {
		return err
	}

	analyzer := analysis.NewConfiguredAnalyzer(nil)

	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Sampling cribs ...")
	options, err := analyzer.Analyze(hand, *dealer, *players)
	spinner.Stop()
	if err != nil {
		return err
	}
	if *historyPath != "" {
		rec := analysis.NewHandRecord(hand, options[0], *dealer, *players, time.Now())
		if err := saveAnalysis(context.Background(), *historyPath, rec); err != nil {
			pterm.Warning.Printfln("Hand not recorded: %v", err)
		}
	}
	return pterm.DefaultTable.WithHasHeader().WithData(optionRows(options, *top)).Render()
}

func saveAnalysis(ctx context.Context, path string, rec analysis.HandRecord) error {
	store, err := history.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Save(ctx, rec)
	return err
}

func optionRows(options []analysis.Option, top int) pterm.TableData {
	rows := pterm.TableData{{"Keep", "Discard", "Hand avg", "Hand min-max", "Crib avg", "Pegging", "Net"}}
	for i, opt := range options {
		if top > 0 && i >= top {
			break
		}
		rows = append(rows, []string{
			strings.Join(domain.CardCodes(opt.Kept), " "),
			strings.Join(domain.CardCodes(opt.Discarded), " "),
			ftoa(opt.HandStats.Avg),
			fmt.Sprintf("%d-%d", opt.HandStats.Min, opt.HandStats.Max),
			ftoa(opt.CribStats.Avg),
			ftoa(opt.PeggingScore),
			ftoa(opt.TotalExpectedValue),
		})
	}
	return rows
}

func runPeg(args []string, _ *slog.Logger) error {
	fs := flag.NewFlagSet("peg", flag.ContinueOnError)
	handArg := fs.String("hand", "", "cards in hand, comma separated")
	stackArg := fs.String("stack", "", "cards on the current pegging stack, oldest first")
	total := fs.Int("total", -1, "running total; defaults to the sum of the stack")
	if err := fs.Parse(args); err != nil {
		return err
	}
	hand, err := parseCardList(*handArg)
	if err != nil {
		return err
	}
	if len(hand) == 0 {
		return errors.New("-hand is required")
	}
	stack, err := parseCardList(*stackArg)
	if err != nil {
		return err
	}
	if *total < 0 {
		*total = stackTotal(stack)
	}
	if *total > domain.MaxPeggingTotal {
		return fmt.Errorf("total %d is over %d", *total, domain.MaxPeggingTotal)
	}

	choice := bot.ChoosePeggingCard(hand, stack, *total)
	if choice.Card == nil {
		pterm.Warning.Printfln("No card fits under %d: say go.", domain.MaxPeggingTotal)
		return nil
	}
	pterm.Success.Printfln("Play %s (heuristic %d)", choice.Card, choice.Score)
	if choice.Debug != "" {
		pterm.Info.Println(choice.Debug)
	}
	return nil
}

func stackTotal(stack []domain.Card) int {
	total := 0
	for _, c := range stack {
		total += c.Value()
	}
	return total
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }
