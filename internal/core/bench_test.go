package core

import (
	"strconv"
	"testing"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	registry := NewRegistry()
	directory := NewDirectory()
	router := NewRouter(directory, registry, nopLogger())

	sender := Identity{ID: "sender", Username: "sender"}
	directory.Join("channel:bench", sender.ID)

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		id := "c" + strconv.Itoa(i)
		c := NewClient("conn-"+id, Identity{ID: id}, 1024)
		registry.Register(c)
		directory.Join("channel:bench", id)
		clients = append(clients, c)
	}

	// Drain recipients so queues never fill up during the run.
	for _, c := range clients {
		go func(cl *Client) {
			for range cl.Events() {
			}
		}(c)
	}

	event := TypingEvent(sender, "bench", true)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		router.Broadcast("channel:bench", event, sender.ID)
	}

	b.StopTimer()
	for _, c := range clients {
		c.Close()
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
