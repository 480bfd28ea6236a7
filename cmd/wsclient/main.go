package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// serverMessage holds the union of fields the server may send
type serverMessage struct {
	Type         string `json:"type"`
	MessageID    string `json:"message_id"`
	RunID        string `json:"run_id"`
	State        string `json:"state"`
	ElapsedMs    int64  `json:"elapsed_ms"`
	Transcript   string `json:"transcript"`
	Translation  string `json:"translation"`
	AudioData    string `json:"audio_data"`
	DownloadName string `json:"download_name"`
	DurationMs   int64  `json:"duration_ms"`
	Segments     int    `json:"segments"`
	ErrorCode    string `json:"error_code"`
	Message      string `json:"message"`
	Details      string `json:"details"`
}

func main() {
	host := flag.String("host", "localhost:8080", "server host:port")
	in := flag.String("in", "sample_audio.wav", "audio file to translate")
	from := flag.String("from", "en", "source language code")
	to := flag.String("to", "es", "target language code")
	slow := flag.Bool("slow", false, "request slower speech")
	outDir := flag.String("out", "audio_responses", "directory for translated audio")
	flag.Parse()

	audioFileData, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("Error reading audio file: %v", err)
	}
	log.Printf("📁 Read audio file: %s (%d bytes)", *in, len(audioFileData))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws"}
	log.Printf("connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Start a goroutine to read messages from the server
	go handleIncomingMessages(c, *outDir, done)

	messageID := uuid.NewString()
	request := map[string]interface{}{
		"type":        "translate",
		"message_id":  messageID,
		"timestamp":   time.Now().Format(time.RFC3339),
		"audio_data":  base64.StdEncoding.EncodeToString(audioFileData),
		"extension":   strings.TrimPrefix(filepath.Ext(*in), "."),
		"source_lang": *from,
		"target_lang": *to,
		"slow":        *slow,
	}
	log.Printf("🚀 Sending translate request %s (%s → %s)", messageID, *from, *to)
	if err := c.WriteJSON(request); err != nil {
		log.Fatalf("Error sending translate request: %v", err)
	}

	// Wait for the result or an interrupt signal
	select {
	case <-done:
	case <-interrupt:
		log.Println("interrupt")
	}

	// Cleanly close the connection by sending a close message and then
	// waiting (with timeout) for the server to close the connection.
	err = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		log.Println("write close:", err)
		return
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

func handleIncomingMessages(c *websocket.Conn, outDir string, done chan struct{}) {
	defer close(done)
	start := time.Now()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			log.Println("read:", err)
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Println("unmarshal error:", err)
			continue
		}

		switch msg.Type {
		case "stage":
			log.Printf("⏱  %-12s %5dms (run %s)", msg.State, msg.ElapsedMs, msg.RunID)
		case "result":
			log.Printf("📝 Transcript:  %s", msg.Transcript)
			log.Printf("🌐 Translation: %s", msg.Translation)
			if err := saveAudio(outDir, msg); err != nil {
				log.Printf("Error saving translated audio: %v", err)
			}
			log.Printf("📊 %d segments, %dms of audio, round trip %v", msg.Segments, msg.DurationMs, time.Since(start))
			return
		case "error":
			log.Printf("❌ %s: %s (%s)", msg.ErrorCode, msg.Message, msg.Details)
			return
		default:
			log.Printf("Received unknown message type: %s", msg.Type)
		}
	}
}

func saveAudio(outDir string, msg serverMessage) error {
	audio, err := base64.StdEncoding.DecodeString(msg.AudioData)
	if err != nil {
		return fmt.Errorf("invalid audio payload: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(outDir, msg.DownloadName)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return err
	}
	log.Printf("📁 Saved translated audio: %s (%d bytes)", path, len(audio))
	return nil
}
