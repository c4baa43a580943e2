package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-relay/internal/proto"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	name := flag.String("name", "tester", "display name to announce with auth")
	key := flag.String("key", "smoke-public-key", "opaque public key to announce")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(v interface{}) {
		if err := wsjson.Write(ctx, conn, v); err != nil {
			log.Fatalf("send: %v", err)
		}
	}

	publicKey, _ := json.Marshal(*key)
	mustSend(map[string]any{"type": proto.KindAuth, "name": *name, "publicKey": json.RawMessage(publicKey)})

	var welcome proto.Welcome
	if err := wsjson.Read(ctx, conn, &welcome); err != nil {
		log.Fatalf("read welcome: %v", err)
	}
	if welcome.Type != proto.KindWelcome {
		log.Fatalf("expected welcome, got %s", welcome.Type)
	}
	fmt.Printf("Welcome: id=%s name=%s\n", welcome.ID, welcome.Name)

	var users proto.UserList
	if err := wsjson.Read(ctx, conn, &users); err != nil {
		log.Fatalf("read user_list: %v", err)
	}
	fmt.Printf("Online: %d\n", len(users.Users))
	for _, u := range users.Users {
		fmt.Printf("  %s %s\n", u.ID, u.Name)
	}

	mustSend(map[string]any{"type": proto.KindEncryptedMsg, "to": "nobody", "encrypted": "x"})

	var reply proto.Error
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		log.Fatalf("read error reply: %v", err)
	}
	fmt.Printf("Unknown recipient reply: type=%s message=%q\n", reply.Type, reply.Message)
}
