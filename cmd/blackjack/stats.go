package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/genchadt/damnsimple-blackjack/internal/config"
	"github.com/genchadt/damnsimple-blackjack/internal/logging"
)

var (
	statsTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Width(14)
)

// StatsCmd prints aggregated statistics and recent rounds
type StatsCmd struct {
	Recent int `kong:"default='10',help='Number of recent rounds to list'"`
}

func (c *StatsCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Environment)

	a, err := buildApp(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if a.stats == nil {
		return errors.New("round history is disabled (HISTORY_ENABLED=false)")
	}

	ctx := context.Background()
	stats, err := a.stats.PlayerStatistics(ctx, cfg.PlayerID)
	if err != nil {
		return fmt.Errorf("failed to load statistics: %w", err)
	}

	fmt.Println(statsTitleStyle.Render(fmt.Sprintf(" Blackjack stats — %s ", cfg.PlayerID)))
	fmt.Println()
	printStat("Rounds", "%d", stats.RoundsPlayed)
	printStat("Hands", "%d", stats.HandsPlayed)
	printStat("Wins", "%d", stats.Wins)
	printStat("Losses", "%d", stats.Losses)
	printStat("Pushes", "%d", stats.Pushes)
	printStat("Blackjacks", "%d", stats.Blackjacks)
	printStat("Busts", "%d", stats.Busts)
	printStat("Splits", "%d", stats.Splits)
	printStat("Double downs", "%d", stats.DoubleDowns)
	printStat("Insurances", "%d", stats.Insurances)
	printStat("Win rate", "%.1f%%", stats.WinRate())
	printStat("Total bet", "$%d", stats.TotalBet)
	printStat("Net profit", "$%d", stats.NetProfit())

	if c.Recent <= 0 {
		return nil
	}

	rounds, err := a.stats.RecentRounds(ctx, cfg.PlayerID, c.Recent)
	if err != nil {
		return fmt.Errorf("failed to load recent rounds: %w", err)
	}
	if len(rounds) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println(statsTitleStyle.Render(" Recent rounds "))
	fmt.Println()
	for _, round := range rounds {
		hands := make([]string, 0, len(round.Hands))
		for _, hand := range round.Hands {
			hands = append(hands, fmt.Sprintf("%d %s", hand.Score, hand.Result))
		}
		fmt.Printf("%s  bet $%-5d dealer %-2d  %s\n",
			round.CompletedAt.Format(time.DateTime),
			round.Bet,
			round.DealerScore,
			strings.Join(hands, " | "))
	}

	return nil
}

func printStat(label, format string, value interface{}) {
	fmt.Printf("%s %s\n", statsLabelStyle.Render(label), fmt.Sprintf(format, value))
}
