package bot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"coinpilot/internal/domain"
	"coinpilot/internal/service"

	tele "gopkg.in/telebot.v3"
)

// TradeNotifier pushes cycle summaries to a Telegram chat and answers a few
// operator commands.
type TradeNotifier struct {
	bot       *tele.Bot
	chatID    int64
	trader    *service.TraderService
	portfolio *service.PortfolioService
}

// StartTelegramBot wires the bot when a token is configured; otherwise it
// returns nil and the loop runs without notifications.
func StartTelegramBot(trader *service.TraderService, portfolio *service.PortfolioService, token string, chatID int64) *TradeNotifier {
	if token == "" {
		log.Println("no Telegram bot token configured, skipping bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	n := &TradeNotifier{bot: b, chatID: chatID, trader: trader, portfolio: portfolio}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/status", func(c tele.Context) error {
		report := trader.LastReport()
		if report == nil {
			return c.Send("No cycle has completed yet.")
		}
		return c.Send(formatReport(*report))
	})

	b.Handle("/balance", func(c tele.Context) error {
		balances, err := portfolio.Balances(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching balances: %v", err))
		}
		return c.Send(formatBalances(balances))
	})

	log.Println("Telegram bot started")
	go b.Start()
	return n
}

// NotifyCycle sends a summary after each cycle that attempted any trade.
func (n *TradeNotifier) NotifyCycle(report domain.CycleReport) {
	if n == nil || n.chatID == 0 {
		return
	}
	if len(report.Actions) == 0 && len(report.Rejections) == 0 {
		return
	}
	if _, err := n.bot.Send(tele.ChatID(n.chatID), formatReport(report)); err != nil {
		log.Printf("telegram notify error: %v", err)
	}
}

func formatReport(report domain.CycleReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Cycle %s\n", report.StartedAt.Format("2006-01-02 15:04 MST")))
	sb.WriteString(fmt.Sprintf("Scanned %d assets, %d positions\n", report.SnapshotCount, report.PositionCount))
	sb.WriteString(fmt.Sprintf("Opportunities: %d buy, %d sell\n", len(report.Buys), len(report.Sells)))

	if len(report.Results) == 0 {
		sb.WriteString("No orders submitted.")
		return sb.String()
	}
	sb.WriteString("Orders:\n")
	for _, result := range report.Results {
		sb.WriteString(fmt.Sprintf("  %s %s $%.2f [%s]",
			result.Action.Side, result.Action.ProductID, result.Action.AmountUSD, result.Status))
		if result.Status == domain.OrderFailed && result.Detail != "" {
			sb.WriteString(" " + result.Detail)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatBalances(balances domain.Balances) string {
	if len(balances) == 0 {
		return "No balances."
	}
	currencies := make([]string, 0, len(balances))
	for currency := range balances {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	var sb strings.Builder
	sb.WriteString("Balances:\n")
	for _, currency := range currencies {
		sb.WriteString(fmt.Sprintf("  %s: %.8f\n", currency, balances[currency]))
	}
	return strings.TrimRight(sb.String(), "\n")
}
