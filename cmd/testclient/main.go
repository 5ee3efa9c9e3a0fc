// Dev client for exercising the session channel end to end against a local
// server: issues a token, loads context, then either streams a PCM file as
// binary frames or fires an explicit answer request.
//
// Usage:
//
//	go run ./cmd/testclient -question "Tell me about yourself"
//	go run ./cmd/testclient -audio sample_audio.wav
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

type tokenRequest struct {
	UserID string `json:"user_id"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

func main() {
	host := flag.String("host", "localhost:8080", "server host")
	userID := flag.String("user", "dev-user", "user ID to authenticate as")
	question := flag.String("question", "", "send an explicit answer request")
	audioPath := flag.String("audio", "", "stream a LINEAR16 PCM file as audio frames")
	flag.Parse()

	token, err := issueToken(*host, *userID)
	if err != nil {
		log.Fatal("Failed to issue token:", err)
	}
	log.Printf("Authenticated as %s", *userID)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	headers := http.Header{}
	headers.Add("Authorization", "Bearer "+token)

	c, _, err := websocket.DefaultDialer.Dial(u.String(), headers)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	done := make(chan struct{})
	go printServerEvents(c, done)

	sendContext(c, *userID)

	switch {
	case *question != "":
		send(c, map[string]interface{}{
			"type":     "request_answer",
			"question": *question,
		})
	case *audioPath != "":
		streamAudioFile(c, *audioPath)
	default:
		log.Println("Nothing to send; use -question or -audio. Listening for events.")
	}

	select {
	case <-done:
		return
	case <-interrupt:
		log.Println("interrupt")
		err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		if err != nil {
			log.Println("write close:", err)
			return
		}
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func issueToken(host, userID string) (string, error) {
	jsonData, err := json.Marshal(tokenRequest{UserID: userID})
	if err != nil {
		return "", err
	}

	resp, err := http.Post("http://"+host+"/api/v1/auth/token", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed: %s", string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", err
	}
	return tr.Token, nil
}

func sendContext(c *websocket.Conn, userID string) {
	send(c, map[string]interface{}{
		"type":        "context",
		"user_id":     userID,
		"resume_text": "Backend engineer, five years of Go, previously at a payments startup.",
		"star_stories": []map[string]string{
			{
				"title":     "Migration marathon",
				"situation": "Our monolith could not keep up with traffic",
				"task":      "Lead the extraction of the payments path",
				"action":    "Split it into two services behind a queue",
				"result":    "p99 latency dropped by 60 percent",
			},
		},
		"talking_points": []string{"ownership", "incident response"},
		"qa_pairs": []map[string]string{
			{"question": "Why do you want this role?", "answer": "I want to own a product surface end to end."},
		},
	})
}

func streamAudioFile(c *websocket.Conn, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Error reading audio file: %v", err)
		return
	}
	log.Printf("Read audio file: %s (%d bytes)", path, len(data))

	chunkSize := 3200 // 100ms of LINEAR16 at 16kHz
	sent := 0
	for start := 0; start < len(data); start += chunkSize {
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := c.WriteMessage(websocket.BinaryMessage, data[start:end]); err != nil {
			log.Printf("Error sending audio frame: %v", err)
			return
		}
		sent++
		time.Sleep(100 * time.Millisecond) // pace like a live microphone
	}
	log.Printf("Sent %d audio frames", sent)

	send(c, map[string]interface{}{"type": "finalize_audio"})
}

func printServerEvents(c *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			log.Println("read:", err)
			return
		}
		log.Printf("<- %s", message)
	}
}

func send(c *websocket.Conn, message map[string]interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("marshal: %v", err)
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("write: %v", err)
	}
}
