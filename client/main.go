package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/flowerzone/network"
	"github.com/wfunc/flowerzone/protocol"
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgType protocol.MsgType, body interface{}) error {
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			return err
		}
	}
	packet, err := network.EncodePacket(uint16(msgType), data)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.BinaryMessage, packet)
}

// parse turns one input line into a command.
func parse(line string, profile protocol.Profile) (protocol.MsgType, interface{}, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, fmt.Errorf("empty command")
	}
	switch fields[0] {
	case "create":
		return protocol.MsgCreateRoom, protocol.CreateRoom{Player: profile}, nil
	case "join":
		if len(fields) < 2 {
			return 0, nil, fmt.Errorf("usage: join CODE")
		}
		return protocol.MsgJoinRoom, protocol.JoinRoom{RoomCode: fields[1], Player: profile}, nil
	case "leave":
		return protocol.MsgLeaveRoom, nil, nil
	case "ready", "unready":
		return protocol.MsgToggleReady, protocol.ToggleReady{Ready: fields[0] == "ready"}, nil
	case "start":
		return protocol.MsgStartRound, nil, nil
	case "move":
		if len(fields) < 3 {
			return 0, nil, fmt.Errorf("usage: move X Y")
		}
		x, errX := strconv.ParseFloat(fields[1], 64)
		y, errY := strconv.ParseFloat(fields[2], 64)
		if errX != nil || errY != nil {
			return 0, nil, fmt.Errorf("move needs two numbers")
		}
		return protocol.MsgMove, protocol.Move{X: &x, Y: &y}, nil
	case "collect":
		if len(fields) < 2 {
			return 0, nil, fmt.Errorf("usage: collect ID")
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, nil, err
		}
		return protocol.MsgCollect, protocol.Collect{ItemID: id}, nil
	}
	return 0, nil, fmt.Errorf("unknown command %q", fields[0])
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	name := flag.String("name", "", "player name (random if empty)")
	color := flag.String("color", "", "player color")
	flag.Parse()

	if *name == "" {
		*name = "guest-" + uuid.NewString()[:6]
	}
	profile := protocol.Profile{Name: *name, Color: *color}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s as %s", u.String(), profile.Name)

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

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
			packet, err := network.DecodePacket(message)
			if err != nil {
				log.Printf("Received invalid packet: %v", err)
				continue
			}
			msgType := protocol.MsgType(packet.MsgID)
			if msgType == protocol.MsgGameUpdate || msgType == protocol.MsgPlayerMove {
				continue
			}
			log.Printf("<- %s: %s", msgType, string(packet.Data))
		}
	}()

	log.Println("Commands: create | join CODE | leave | ready | unready | start | move X Y | collect ID")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

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
		case line, ok := <-lines:
			if !ok {
				return
			}
			msgType, body, err := parse(line, profile)
			if err != nil {
				log.Println(err)
				continue
			}
			if err := send(c, msgType, body); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> %s", msgType)
		}
	}
}
