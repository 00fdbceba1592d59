package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/axiomflow/api/internal/model"
	"github.com/axiomflow/api/pkg/client"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("WORKBENCH_API_URL", "http://localhost:8000"), "translation API base URL")
	token := flag.String("token", os.Getenv("WORKBENCH_TOKEN"), "bearer token")
	documentID := flag.String("doc", "", "document ID to translate")
	langIn := flag.String("from", "en", "source language")
	langOut := flag.String("to", "zh", "target language")
	provider := flag.String("provider", "google", "translation provider (google, ollama)")
	flag.Parse()

	if *documentID == "" {
		fmt.Fprintln(os.Stderr, "usage: workbench -doc <document-id> [-from en] [-to zh] [-provider google]")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Interrupted, stopping...")
		cancel()
	}()

	c := client.New(*apiURL, client.WithToken(*token))

	record, err := c.GetDocument(ctx, *documentID)
	if err != nil {
		log.Fatalf("Failed to load document: %v", err)
	}
	log.Printf("Loaded %q (%d pages, %s -> %s)",
		record.Document.Title, record.Document.NumPages, *langIn, *langOut)

	opts := &client.PollOptions{
		OnUpdate: func(job *model.Job) {
			if job.Done != nil && job.Total != nil {
				log.Printf("  %s %.0f%% (%d/%d)", job.Stage, job.Progress*100, *job.Done, *job.Total)
			} else {
				log.Printf("  %s %.0f%%", job.Stage, job.Progress*100)
			}
		},
	}

	result, err := c.TranslateAndExport(ctx, &model.TranslateJobCreateRequest{
		DocumentID: *documentID,
		LangIn:     *langIn,
		LangOut:    *langOut,
		Provider:   *provider,
	}, opts)
	if err != nil {
		log.Fatalf("Translation failed: %v", err)
	}

	log.Printf("Export ready: %s%s", *apiURL, result.DownloadURL)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
