// Command submission-producer publishes synthetic share-text submissions to
// the Kafka ingestion topic. Useful for exercising the consumer path and for
// load testing a local stack.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"
)

// Submission matches the consumer's expected message format
type Submission struct {
	Username string `json:"username"`
	Text     string `json:"text"`
	Date     string `json:"date,omitempty"`
}

var usernames = []string{
	"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi",
	"ivan", "judy", "mallory", "niaj", "olivia", "peggy", "rupert", "sybil",
}

func getUsername(idx int) string {
	base := usernames[idx%len(usernames)]
	if idx < len(usernames) {
		return base
	}
	return fmt.Sprintf("%s%d", base, idx/len(usernames)+1)
}

// shareText fabricates a plausible share text for a random game
func shareText(rng *rand.Rand) string {
	switch rng.Intn(7) {
	case 0:
		guesses := rng.Intn(6) + 1
		grid := strings.Repeat("⬜⬜🟨🟩⬜\n", guesses-1) + "🟩🟩🟩🟩🟩"
		return fmt.Sprintf("Wordle 1,%03d %d/6\n\n%s", rng.Intn(1000), guesses, grid)
	case 1:
		mistakes := rng.Intn(5)
		var rows []string
		for i := 0; i < mistakes; i++ {
			rows = append(rows, "🟪🟩🟨🟦")
		}
		for _, c := range []string{"🟪", "🟩", "🟨", "🟦"} {
			rows = append(rows, strings.Repeat(c, 4))
		}
		return fmt.Sprintf("Connections\nPuzzle #%d\n%s", rng.Intn(900)+100, strings.Join(rows, "\n"))
	case 2:
		if rng.Intn(5) == 0 {
			return fmt.Sprintf("#travle #%d +0 (Perfect)", rng.Intn(900)+100)
		}
		return fmt.Sprintf("#travle #%d +%d", rng.Intn(900)+100, rng.Intn(8))
	case 3:
		return fmt.Sprintf("#GuessTheGame #%d\n\n🎮 %s", rng.Intn(900)+100, greens(rng))
	case 4:
		return fmt.Sprintf("#GuessTheMovie #%d\n\n🎥 %s", rng.Intn(900)+100, greens(rng))
	case 5:
		return fmt.Sprintf("I got %d,%03d on the FoodGuessr challenge!", rng.Intn(14), rng.Intn(1000))
	default:
		return fmt.Sprintf("TimeGuessr #%d %d,%03d/50,000", rng.Intn(500)+100, rng.Intn(49), rng.Intn(1000))
	}
}

func greens(rng *rand.Rand) string {
	pos := rng.Intn(7) // 6 means never guessed
	var squares []string
	for i := 0; i < 6; i++ {
		switch {
		case i == pos:
			squares = append(squares, "🟩")
		case i < pos:
			squares = append(squares, "🟥")
		default:
			squares = append(squares, "⬜")
		}
	}
	return strings.Join(squares, " ")
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "puzzle-submissions", "Kafka topic")
	totalUsers := flag.Int("users", 16, "Number of distinct users")
	rate := flag.Int("rate", 5, "Submissions per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	fmt.Printf("Publishing submissions to %s (topic %s, %d users, %d/sec)\n",
		*brokers, *topic, *totalUsers, *rate)

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	// Create producer
	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}
	defer producer.Close()

	// Handle producer errors and successes
	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	sendSubmission := func(sub Submission) {
		data, err := json.Marshal(sub)
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			return
		}

		msg := &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(sub.Username),
			Value: sarama.ByteEncoder(data),
		}

		select {
		case producer.Input() <- msg:
		case <-done:
			return
		}
	}

	interval := time.Second / time.Duration(*rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var sentCount int64

	shutdown := func() {
		close(done)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\nCompleted. Sent: %d, Errors: %d\n",
			atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	fmt.Println("Press Ctrl+C to stop")

	for {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			shutdown()
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\nDuration reached, shutting down...")
				shutdown()
				return
			}

			sub := Submission{
				Username: getUsername(rng.Intn(*totalUsers)),
				Text:     shareText(rng),
			}
			sendSubmission(sub)
			atomic.AddInt64(&sentCount, 1)

		case <-statsTicker.C:
			fmt.Printf("[%s] Sent: %d | Acked: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&sentCount),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
