package main

import (
	"fmt"
	"strings"

	"cribbage/internal/domain"

	"github.com/pterm/pterm"
)

func renderState(g *domain.GameState, me string) {
	box := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	title := pterm.LightYellow(fmt.Sprintf("|ROUND %d: %s|", g.Round, strings.ToUpper(string(g.Phase))))

	panels := [][]pterm.Panel{{
		{Data: box.WithTitle(pterm.LightCyan("|SCORES|")).WithTitleTopCenter().Sprint(scoreLines(g, me))},
		{Data: box.WithTitle(title).WithTitleTopCenter().Sprint(tableLines(g))},
	}}
	if p := g.Player(me); p != nil {
		panels = append(panels, []pterm.Panel{
			{Data: box.WithTitle(pterm.LightGreen("|YOUR HAND|")).WithTitleTopCenter().Sprint(handLine(p.Hand))},
		})
	}
	pterm.DefaultPanel.WithPanels(panels).Render()

	if g.LastScore != nil && g.LastScore.Points > 0 {
		who := g.LastScore.PlayerID
		if p := g.Player(who); p != nil {
			who = p.Name
		}
		pterm.Info.Printfln("%s pegs %d: %s", who, g.LastScore.Points, strings.Join(g.LastScore.Reasons, ", "))
	}
}

func scoreLines(g *domain.GameState, me string) string {
	var b strings.Builder
	for _, p := range g.Players {
		marker := " "
		if p.IsDealer {
			marker = "D"
		}
		name := p.Name
		if p.ID == me {
			name = pterm.Bold.Sprint(name)
		}
		turn := ""
		if g.TurnPlayerID == p.ID {
			turn = " <"
		}
		if g.Phase == domain.PhaseCounting && g.Ready[p.ID] {
			turn = " ready"
		}
		fmt.Fprintf(&b, "%s %-12s %3d%s\n", marker, name, p.Score, turn)
	}
	return strings.TrimRight(b.String(), "\n")
}

func tableLines(g *domain.GameState) string {
	var b strings.Builder
	cut := "-"
	if g.CutCard != nil {
		cut = g.CutCard.String()
	}
	fmt.Fprintf(&b, "Cut: %s   Crib: %d cards\n", cut, len(g.Crib))

	switch g.Phase {
	case domain.PhasePegging:
		fmt.Fprintf(&b, "Stack: %s\nTotal: %d", stackLine(g.PeggingStack), g.PeggingTotal)
	case domain.PhaseCounting:
		b.WriteString(countingLines(g))
	default:
		b.WriteString("Waiting for discards")
	}
	return b.String()
}

func stackLine(stack []domain.PeggingEntry) string {
	if len(stack) == 0 {
		return "-"
	}
	return strings.Join(domain.CardCodes(domain.StackCards(stack)), " ")
}

// countingLines shows the hands scored in the current counting stage.
func countingLines(g *domain.GameState) string {
	var b strings.Builder
	show := func(label string, cards []domain.Card, isCrib bool) {
		bd := domain.Score(cards, g.CutCard, isCrib)
		fmt.Fprintf(&b, "%s: %s = %d", label, strings.Join(domain.CardCodes(cards), " "), bd.Total)
		if bd.Total > 0 {
			fmt.Fprintf(&b, " (15s %d, pairs %d, runs %d, flush %d, nobs %d)", bd.Fifteens, bd.Pairs, bd.Runs, bd.Flush, bd.Nobs)
		}
		b.WriteString("\n")
	}
	dealer := g.Dealer()
	switch g.CountingStage {
	case domain.StageNonDealerHand:
		for _, p := range g.Players {
			if !p.IsDealer {
				show(p.Name, p.CountedCards(), false)
			}
		}
	case domain.StageDealerHand:
		if dealer != nil {
			show(dealer.Name, dealer.CountedCards(), false)
		}
	case domain.StageCrib:
		show("Crib", g.Crib, true)
	}
	return strings.TrimRight(b.String(), "\n")
}

func handLine(hand []domain.Card) string {
	if len(hand) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = fmt.Sprintf("%d:%s", i+1, c)
	}
	return strings.Join(parts, "  ")
}
