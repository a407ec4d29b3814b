package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"cribbage/internal/app"
	"cribbage/internal/bot"
	"cribbage/internal/domain"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
)

// maxSimulationSteps bounds one simulated game; real games finish in a few hundred.
const maxSimulationSteps = 20000

type simResult struct {
	Winner string
	Scores map[string]int
	Rounds int
}

func runSimulate(args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	games := fs.Int("games", 10, "games to play")
	players := fs.Int("players", 2, "bots per game")
	level := fs.String("level", "good", "bot level: easy or good")
	seed := fs.Int64("seed", 0, "random seed; 0 picks one from the clock")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *games < 1 {
		return errors.New("-games must be positive")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	botLevel := bot.ParseBotLevel(*level)

	wins := map[string]int{}
	totals := map[string]int{}
	rounds := 0
	progress, _ := pterm.DefaultProgressbar.WithTotal(*games).WithTitle("Simulating").Start()
	for i := 0; i < *games; i++ {
		res, err := simulateGame(rng, *players, botLevel)
		if err != nil {
			progress.Stop()
			return fmt.Errorf("game %d: %w", i+1, err)
		}
		wins[res.Winner]++
		for id, score := range res.Scores {
			totals[id] += score
		}
		rounds += res.Rounds
		progress.Increment()
	}
	progress.Stop()
	logger.Debug("simulation finished", "games", *games, "seed", *seed)

	rows := pterm.TableData{{"Seat", "Wins", "Avg score"}}
	for i := 0; i < *players; i++ {
		id := seatID(i)
		rows = append(rows, []string{id, itoa(wins[id]), ftoa(float64(totals[id]) / float64(*games))})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("%d games, %.1f rounds per game, seed %d", *games, float64(rounds)/float64(*games), *seed)
	return nil
}

func seatID(i int) string { return fmt.Sprintf("p%d", i+1) }

// simulateGame plays one bot-only game to completion, checking card
// conservation after every command.
func simulateGame(rng *rand.Rand, players int, level bot.BotLevel) (simResult, error) {
	if players < app.MinPlayersToStartGame || players > app.MaxPlayersPerGame {
		return simResult{}, app.ErrInvalidPlayers
	}
	svc := app.NewService(rng)
	seats := make([]app.PlayerSeat, players)
	agents := make(map[string]*bot.Agent, players)
	for i := range seats {
		id := seatID(i)
		seats[i] = app.PlayerSeat{ID: id, Name: bot.GetBotIdentity(i).DisplayName}
		agent, err := bot.NewAgent(id, level, rng)
		if err != nil {
			return simResult{}, err
		}
		agents[id] = agent
	}
	g, _, err := svc.NewGame(uuid.NewString(), seats)
	if err != nil {
		return simResult{}, err
	}

	for step := 0; !g.IsOver(); step++ {
		if step >= maxSimulationSteps {
			return simResult{}, fmt.Errorf("no winner after %d steps in round %d", step, g.Round)
		}
		if err := simulateStep(svc, g, agents); err != nil {
			return simResult{}, err
		}
		if err := domain.CheckConservation(g); err != nil {
			return simResult{}, err
		}
	}

	res := simResult{Winner: g.WinnerID, Scores: map[string]int{}, Rounds: g.Round}
	for _, p := range g.Players {
		res.Scores[p.ID] = p.Score
	}
	return res, nil
}

func simulateStep(svc *app.Service, g *domain.GameState, agents map[string]*bot.Agent) error {
	switch g.Phase {
	case domain.PhaseDiscarding:
		for _, p := range g.Players {
			if len(p.Hand) <= domain.KeepSize {
				continue
			}
			move, err := agents[p.ID].Decide(g)
			if err != nil {
				return err
			}
			indices, err := app.HandIndices(p.Hand, move.Discard)
			if err != nil {
				return err
			}
			_, err = svc.Discard(g, p.ID, indices)
			return err
		}
		return fmt.Errorf("discarding with nothing to discard")
	case domain.PhasePegging:
		id := g.TurnPlayerID
		move, err := agents[id].Decide(g)
		if err != nil {
			return err
		}
		if move.Go || move.Card == nil {
			_, err = svc.Go(g, id)
			return err
		}
		index, err := app.HandIndex(g.Player(id).Hand, *move.Card)
		if err != nil {
			return err
		}
		_, err = svc.Play(g, id, index)
		return err
	case domain.PhaseCounting:
		_, err := svc.Acknowledge(g, g.Players[0].ID)
		return err
	default:
		return fmt.Errorf("unexpected phase %q", g.Phase)
	}
}
