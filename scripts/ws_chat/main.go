package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

// This client does not encrypt: it base64-wraps text so the relay path can be
// exercised by hand. Real clients put ciphertext in the same fields.

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

type roster struct {
	mu    sync.Mutex
	users map[string]string
}

func (r *roster) set(users []proto.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]string, len(users))
	for _, u := range users {
		r.users[u.ID] = u.Name
	}
}

func (r *roster) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "cli-user", "display name")
	to := flag.String("to", proto.ToAll, "recipient id, or all")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, map[string]any{"type": proto.KindAuth, "name": *name, "publicKey": "cli-" + *name}); err != nil {
		return fmt.Errorf("send auth: %w", err)
	}

	fmt.Printf("Connected to %s as %s, sending to %s\n", *addr, *name, *to)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	online := &roster{}
	go func() {
		defer cancel()
		readLoop(ctx, conn, online)
	}()

	writeLoop(ctx, conn, online, *to)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn, online *roster) {
	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		var head struct {
			Type proto.Kind `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			log.Printf("unmarshal envelope: %v", err)
			continue
		}

		switch head.Type {
		case proto.KindWelcome:
			var w proto.Welcome
			_ = json.Unmarshal(raw, &w)
			fmt.Printf("* you are %s (%s)\n", w.Name, w.ID)
		case proto.KindUserList:
			var list proto.UserList
			_ = json.Unmarshal(raw, &list)
			online.set(list.Users)
			names := make([]string, 0, len(list.Users))
			for _, u := range list.Users {
				names = append(names, u.Name+"@"+u.ID)
			}
			fmt.Printf("* online: %s\n", strings.Join(names, ", "))
		case proto.KindEncryptedMsg:
			var msg proto.EncryptedMsg
			_ = json.Unmarshal(raw, &msg)
			fmt.Printf("[%s] %s\n", msg.From, decodeText(msg))
		case proto.KindError:
			var e proto.Error
			_ = json.Unmarshal(raw, &e)
			fmt.Printf("! %s\n", e.Message)
		default:
			fmt.Printf("%s %s\n", head.Type, raw)
		}
	}
}

func decodeText(msg proto.EncryptedMsg) string {
	var wrapped string
	if msg.Broadcast {
		var bundle map[string]string
		if err := json.Unmarshal(msg.EncryptedMessages, &bundle); err != nil {
			return string(msg.EncryptedMessages)
		}
		for _, v := range bundle {
			wrapped = v
			break
		}
	} else if err := json.Unmarshal(msg.Encrypted, &wrapped); err != nil {
		return string(msg.Encrypted)
	}
	text, err := base64.StdEncoding.DecodeString(wrapped)
	if err != nil {
		return wrapped
	}
	return string(text)
}

func writeLoop(ctx context.Context, conn *websocket.Conn, online *roster, to string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			wrapped := base64.StdEncoding.EncodeToString([]byte(text))
			msg := map[string]any{
				"type":     proto.KindEncryptedMsg,
				"to":       to,
				"uniqueId": fmt.Sprintf("cli-%d", time.Now().UnixNano()),
			}
			if to == proto.ToAll {
				bundle := make(map[string]string)
				for _, id := range online.ids() {
					bundle[id] = wrapped
				}
				msg["encryptedMessages"] = bundle
			} else {
				msg["encrypted"] = wrapped
			}

			if err := wsjson.Write(ctx, conn, msg); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
