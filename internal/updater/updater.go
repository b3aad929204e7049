package updater

import (
	"context"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"phishguard/internal/repository"
)

const fetchTimeout = 60 * time.Second

// Run refreshes every configured feed concurrently. A failing feed is
// logged and skipped; it never aborts the other feeds.
func Run(ctx context.Context, db *repository.ListDB, sources []repository.FeedSource) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			processSource(ctx, db, src)
			return nil
		})
	}

	g.Wait()
}

func processSource(ctx context.Context, db *repository.ListDB, src repository.FeedSource) {
	log.Printf("Checking feed: %s (%s)", src.Name, src.Format)

	// Name + URL makes the ETag key survive a feed moving hosts.
	etagKey := src.Name + "_" + src.URL
	currentETag := db.GetETag(etagKey)

	client := &http.Client{Timeout: fetchTimeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		log.Printf("Bad feed URL for %s: %v", src.Name, err)
		return
	}
	if currentETag != "" {
		req.Header.Set("If-None-Match", currentETag)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Error fetching %s: %v", src.Name, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		log.Printf("[%s] Up to date.", src.Name)
		return
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[%s] Failed with status %d", src.Name, resp.StatusCode)
		return
	}

	entryChan := make(chan repository.ListEntry, 2000)
	doneChan := make(chan int)

	// Consumer: StreamSync marks rows with this import and sweeps the
	// source's stale rows in the same transaction.
	go func() {
		count, err := db.StreamSync(entryChan, src.Name)
		if err != nil {
			log.Printf("DB error for %s: %v", src.Name, err)
			doneChan <- 0
		} else {
			doneChan <- count
		}
	}()

	// Producer: parse the body and close the channel when drained.
	repository.ParseAndStream(resp.Body, entryChan, src)

	count := <-doneChan
	log.Printf("[%s] Updated. %d entries active.", src.Name, count)

	if newETag := resp.Header.Get("ETag"); newETag != "" {
		db.UpdateETag(etagKey, newETag)
	}
}
