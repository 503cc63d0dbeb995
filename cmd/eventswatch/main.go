// Command eventswatch connects to the live event feed and prints every
// inventory change. Useful for watching a running server during development.
package main

import (
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8420", "server address")
	token := flag.String("token", "", "JWT bearer token")
	flag.Parse()

	if *token == "" {
		log.Fatal("a -token is required; log in via the API to obtain one")
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     "/api/v1/ws/events",
		RawQuery: "token=" + url.QueryEscape(*token),
	}
	log.Printf("connecting to %s", u.Host+u.Path)

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read error: %v", err)
				return
			}
			log.Printf("event: %s", message)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("interrupted, closing connection")
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		<-done
	}
}
