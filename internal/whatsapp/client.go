// Package whatsapp runs the WhatsApp transport: device pairing,
// inbound message handling and outbound sends.
package whatsapp

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/frost-bit-star/stackverify-bot/internal/directory"
	"github.com/frost-bit-star/stackverify-bot/internal/observability"
)

// Responder produces a reply for one inbound user message.
type Responder interface {
	Respond(ctx context.Context, userID, message string) string
}

const handleTimeout = 120 * time.Second

type Client struct {
	wa        *whatsmeow.Client
	responder Responder
	registry  directory.Registry
	metrics   *observability.Metrics
}

func NewClient(dbPath string, responder Responder, registry directory.Registry, metrics *observability.Metrics) (*Client, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session directory %s: %w", dir, err)
		}
	}

	dbLog := waLog.Stdout("Database", "ERROR", true)
	container, err := sqlstore.New(context.Background(), "sqlite3", "file:"+dbPath+"?_foreign_keys=on", dbLog)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	device, err := container.GetFirstDevice(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}

	c := &Client{
		wa:        whatsmeow.NewClient(device, waLog.Stdout("Client", "ERROR", true)),
		responder: responder,
		registry:  registry,
		metrics:   metrics,
	}
	c.wa.AddEventHandler(c.handleEvent)
	return c, nil
}

// Connect pairs the device when no session exists, printing the QR
// code to the terminal, then establishes the socket.
func (c *Client) Connect(ctx context.Context) error {
	if c.wa.Store.ID == nil {
		qrChan, err := c.wa.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("qr channel: %w", err)
		}
		if err := c.wa.Connect(); err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		for evt := range qrChan {
			if evt.Event == "code" {
				log.Println("scan this QR code to pair:")
				qrterminal.GenerateHalfBlock(evt.Code, qrterminal.L, os.Stdout)
			}
		}
		return nil
	}
	if err := c.wa.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (c *Client) Disconnect() {
	c.wa.Disconnect()
}

func (c *Client) Connected() bool {
	return c.wa != nil && c.wa.IsConnected()
}

// SendText delivers a plain text message to a phone number.
func (c *Client) SendText(ctx context.Context, number, text string) error {
	digits := sanitizePhone(number)
	if digits == "" {
		return fmt.Errorf("invalid phone number %q", number)
	}
	jid := types.NewJID(digits, types.DefaultUserServer)
	_, err := c.wa.SendMessage(ctx, jid, &waProto.Message{Conversation: &text})
	if err != nil {
		return fmt.Errorf("send to %s: %w", jid, err)
	}
	return nil
}

func (c *Client) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Message:
		c.handleMessage(v)
	case *events.Connected:
		log.Println("whatsapp connected")
	case *events.LoggedOut:
		log.Println("whatsapp logged out, delete the session db and pair again")
	}
}

func (c *Client) handleMessage(v *events.Message) {
	if v.Info.IsFromMe || v.Info.IsGroup {
		return
	}
	if v.Info.Chat.Server == types.BroadcastServer {
		return
	}

	text := extractText(v)
	if strings.TrimSpace(text) == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	sender := v.Info.Sender.User
	reply := c.dispatch(ctx, sender, text)
	if reply == "" {
		return
	}

	if err := c.sendTo(ctx, v.Info.Chat, reply); err != nil {
		c.metrics.MessagesSent.WithLabelValues("whatsapp", "failed").Inc()
		log.Printf("whatsapp: reply to %s: %v", v.Info.Chat, err)
		return
	}
	c.metrics.MessagesSent.WithLabelValues("whatsapp", "sent").Inc()
}

// dispatch routes chat commands, everything else goes to the responder.
func (c *Client) dispatch(ctx context.Context, sender, text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case ".ping":
		return "StackVerify bot is online."
	case "allow me":
		key, err := c.registry.Allow(ctx, sender)
		if err != nil {
			log.Printf("whatsapp: allow %s: %v", sender, err)
			return "Could not issue an API key, try again later."
		}
		return fmt.Sprintf("Access granted. Your API key:\n%s", key)
	case "recover apikey":
		key, err := c.registry.Recover(ctx, sender)
		if err != nil {
			return "No API key found. Use 'allow me' first."
		}
		return fmt.Sprintf("Your API key: %s", key)
	}
	return c.responder.Respond(ctx, sender, text)
}

func (c *Client) sendTo(ctx context.Context, chat types.JID, text string) error {
	_, err := c.wa.SendMessage(ctx, chat, &waProto.Message{Conversation: &text})
	return err
}

func extractText(v *events.Message) string {
	if t := v.Message.GetConversation(); t != "" {
		return t
	}
	if ext := v.Message.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return ""
}

func sanitizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
