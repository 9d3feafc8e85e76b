package network

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestEncodeDecodePacket(t *testing.T) {
	packet, err := EncodePacket(302, []byte(`{"code":"ABCDE"}`))
	if err != nil {
		t.Fatalf("EncodePacket failed: %v", err)
	}
	if !bytes.Equal(packet[:4], []byte{0x01, 0x2e, 0x00, 0x10}) {
		t.Fatalf("Unexpected header % x", packet[:4])
	}

	decoded, err := DecodePacket(packet)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if decoded.MsgID != 302 || decoded.Length != 16 || string(decoded.Data) != `{"code":"ABCDE"}` {
		t.Errorf("Unexpected packet %+v", decoded)
	}
}

func TestDecodePacket_Short(t *testing.T) {
	if _, err := DecodePacket([]byte{0, 1, 0}); !errors.Is(err, io.ErrShortBuffer) {
		t.Errorf("Expected short buffer for truncated header, got %v", err)
	}
	if _, err := DecodePacket([]byte{0, 1, 0, 5, 'a'}); !errors.Is(err, io.ErrShortBuffer) {
		t.Errorf("Expected short buffer for truncated body, got %v", err)
	}
}

func TestEncodePacket_TooLarge(t *testing.T) {
	if _, err := EncodePacket(1, make([]byte, 70000)); !errors.Is(err, ErrPacketTooLarge) {
		t.Errorf("Expected ErrPacketTooLarge, got %v", err)
	}
}

// dialPair returns a server-side WSConnection and the client socket.
func dialPair(t *testing.T, sendBuffer int) (*WSConnection, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		serverSide <- conn
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case conn := <-serverSide:
		return NewWSConnection(conn, sendBuffer), client
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
	}
	return nil, nil
}

func TestWSConnection_SendThroughWritePump(t *testing.T) {
	conn, client := dialPair(t, 4)
	go conn.WritePump()
	defer conn.Close()

	if err := conn.Send(409, []byte("tick")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("client read: %v", err)
	}
	packet, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	if packet.MsgID != 409 || string(packet.Data) != "tick" {
		t.Errorf("Unexpected packet %+v", packet)
	}
}

func TestWSConnection_SendNeverBlocks(t *testing.T) {
	conn, _ := dialPair(t, 1)
	defer conn.Close()

	if err := conn.Send(1, nil); err != nil {
		t.Fatalf("First send should queue, got %v", err)
	}
	if err := conn.Send(1, nil); !errors.Is(err, ErrSendBufferFull) {
		t.Errorf("Expected ErrSendBufferFull without a writer, got %v", err)
	}
}

func TestWSConnection_CloseIsIdempotent(t *testing.T) {
	conn, _ := dialPair(t, 1)
	go conn.WritePump()

	conn.Close()
	conn.Close()
	if conn.IsOpen() {
		t.Fatal("Connection should report closed")
	}
	if err := conn.Send(1, nil); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Expected ErrConnectionClosed, got %v", err)
	}
}

func TestWSConnection_ReadPacket(t *testing.T) {
	conn, client := dialPair(t, 1)
	go conn.WritePump()
	defer conn.Close()

	frame, _ := EncodePacket(201, []byte(`{"dx":1,"dy":2}`))
	if err := client.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatalf("client write: %v", err)
	}
	packet, err := conn.ReadPacket()
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if packet.MsgID != 201 {
		t.Errorf("Expected msg 201, got %d", packet.MsgID)
	}
}
