package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// send writes one JSON text frame.
func send(c *websocket.Conn, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

// parseCommand turns a console line into a message. Supported:
//
//	click <lightId> [r,g,b]
//	colorNamesEnd
func parseCommand(line string) (map[string]any, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, false
	}
	switch fields[0] {
	case "click":
		if len(fields) < 2 {
			return nil, false
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, false
		}
		msg := map[string]any{"type": "lightClickAction", "lightId": id}
		if len(fields) > 2 {
			msg["whileColorWas"] = fields[2]
		}
		return msg, true
	case "colorNamesEnd":
		return map[string]any{"type": "colorNamesEnd"}, true
	}
	return nil, false
}

func main() {
	addr := flag.String("addr", "localhost:3002", "game room address")
	channel := flag.String("channel", "monitor", "channel to join")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	if err := send(c, map[string]string{"channelName": *channel}); err != nil {
		log.Fatalf("Join failed: %v", err)
	}

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			var env struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(message, &env); err != nil {
				log.Printf("<- unparsable: %s", message)
				continue
			}
			log.Printf("<- %s: %s", env.Type, message)
		}
	}()

	lines := make(chan string)
	go func() {
		reader := bufio.NewScanner(os.Stdin)
		for reader.Scan() {
			lines <- reader.Text()
		}
	}()

	log.Printf("Joined %s. Commands: click <lightId> [r,g,b] | colorNamesEnd", *channel)

	// Write loop
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line := <-lines:
			msg, ok := parseCommand(line)
			if !ok {
				log.Printf("unknown command %q", line)
				continue
			}
			if err := send(c, msg); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %v", msg)
		}
	}
}
