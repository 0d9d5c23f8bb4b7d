package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mirror_trader/internal/broker"
)

type Notifier interface {
	Send(msg string)
	Sendf(format string, args ...any)
}

// Telegram — passive notifier plus the remote control channel: any
// plain text from the configured chat is handed to the command sink,
// /positions answers with the live book.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	gw     broker.Gateway
}

func NewTelegram(token string, chatID int64, gw broker.Gateway) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID, gw: gw}, nil
}

func (t *Telegram) Send(msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	_, _ = t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) Sendf(format string, args ...any) { t.Send(fmt.Sprintf(format, args...)) }

// /positions — dump of the open option positions.
func (t *Telegram) handlePositions(ctx context.Context) {
	positions, err := t.gw.GetPositions(ctx)
	if err != nil {
		t.Sendf("failed to fetch positions: %v", err)
		return
	}
	if len(positions) == 0 {
		t.Send("no open positions")
		return
	}

	var b strings.Builder
	b.WriteString("open positions:\n")
	for _, p := range positions {
		fmt.Fprintf(&b, "- %s %s %s %s x%.0f @ %.2f last=%.2f pl=%.1f%%\n",
			p.Ticker, p.Strike, strings.ToUpper(string(p.Direction)),
			p.ExpDate.Format("2006-01-02"), p.Quantity, p.CostPrice, p.LastPrice, p.PLPct*100)
	}
	t.Send(b.String())
}

// Start: long-polling loop; plain text from the chat goes to onText.
func (t *Telegram) Start(ctx context.Context, onText func(text string)) error {
	if t == nil || t.bot == nil {
		return nil
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.Message == nil || upd.Message.Chat == nil || upd.Message.Chat.ID != t.chatID {
					continue
				}
				if upd.Message.IsCommand() {
					switch upd.Message.Command() {
					case "positions":
						go t.handlePositions(ctx)
					}
					continue
				}
				if txt := strings.TrimSpace(upd.Message.Text); txt != "" && onText != nil {
					onText(txt)
				}
			}
		}
	}()
	return nil
}

func (t *Telegram) Stop() { t.bot.StopReceivingUpdates() }

// Stdout — fallback when no bot token is configured.
type Stdout struct{}

func NewStdout() *Stdout                           { return &Stdout{} }
func (s *Stdout) Send(msg string)                  { log.Println(msg) }
func (s *Stdout) Sendf(format string, args ...any) { log.Printf(format, args...) }
