package data

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/jimsnab/go-lane"
	"github.com/tsnotify/ts-notify-bridge/internal/infra/serverquery"
)

// serveScript accepts one connection, sends the banner, then answers each
// command with the next scripted response
func serveScript(t *testing.T, responses ...string) (port int, commands <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	seen := make(chan string, len(responses)+1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		conn.Write([]byte("TS3\n\rWelcome to the TeamSpeak 3 ServerQuery interface.\n\r"))
		r := bufio.NewReader(conn)
		for _, resp := range responses {
			line, err := r.ReadString('\r')
			if err != nil {
				return
			}
			seen <- strings.TrimSuffix(line, serverquery.Terminator)
			conn.Write([]byte(resp))
		}
		// drain whatever follows (quit)
		r.ReadString('\r')
	}()

	return ln.Addr().(*net.TCPAddr).Port, seen
}

func TestOpenQueryRepo_LoginSelectAndList(t *testing.T) {
	port, commands := serveScript(t,
		"error id=0 msg=ok\n\r",
		"error id=0 msg=ok\n\r",
		"clid=1 cid=1 client_database_id=1 client_nickname=serveradmin client_type=1|clid=5 cid=2 client_database_id=9 client_nickname=Foo\\sBar client_type=0\n\rerror id=0 msg=ok\n\r",
	)
	l := lane.NewTestingLane(context.Background())

	q, err := OpenQueryRepo(context.Background(), l, QueryOptions{Host: "127.0.0.1", Port: port, User: "serveradmin", Password: "p w", ServerID: 7})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer q.Close()

	if cmd := <-commands; cmd != "login serveradmin p\\sw" {
		t.Errorf("Unexpected login command %q", cmd)
	}
	if cmd := <-commands; cmd != "use 7" {
		t.Errorf("Unexpected use command %q", cmd)
	}

	clients, err := q.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(clients) != 2 {
		t.Fatalf("Expected 2 clients, got %d", len(clients))
	}
	if !clients[0].IsQueryClient() {
		t.Error("Expected first client to be a query client")
	}
	if clients[1].ClientID != 5 || clients[1].ChannelID != 2 || clients[1].ClientDatabaseID != 9 || clients[1].Nickname != "Foo Bar" {
		t.Errorf("Unexpected client %+v", clients[1])
	}
}

func TestOpenQueryRepo_LoginFailure(t *testing.T) {
	port, _ := serveScript(t, "error id=520 msg=invalid\\sloginname\\sor\\spassword\n\r")
	l := lane.NewTestingLane(context.Background())

	_, err := OpenQueryRepo(context.Background(), l, QueryOptions{Host: "127.0.0.1", Port: port, User: "u", Password: "bad", ServerID: 1})
	if err == nil || !strings.Contains(err.Error(), "login failed") {
		t.Fatalf("Expected login failure, got %v", err)
	}
	var qe *serverquery.QueryError
	if !errors.As(err, &qe) || qe.Code != 520 || qe.Message != "invalid loginname or password" {
		t.Errorf("Expected QueryError 520, got %v", err)
	}
}
