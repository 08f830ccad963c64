// cmd/loadgen/main.go
//
// Hammers one catalog item with concurrent approvals and verifies the
// inventory steady state afterwards: approvals beyond the free copies must
// be refused and available copies must never leave 0..total_copies.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type experimentResult struct {
	Requests    int  `json:"requests"`
	Approved    int  `json:"approved"`
	Refused     int  `json:"refused"`
	Failures    int  `json:"failures"`
	AvailableAt int  `json:"available_after"`
	InvariantOK bool `json:"invariant_ok"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8082/api/v1", "circulation service base URL")
	copies := flag.Int("copies", 3, "total copies of the test item")
	requests := flag.Int("requests", 10, "concurrent borrow requests to approve")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := run(ctx, *baseURL, *copies, *requests)
	if err != nil {
		logger.Error("load run failed", "error", err)
		os.Exit(1)
	}

	json.NewEncoder(os.Stdout).Encode(result)
	if !result.InvariantOK {
		logger.Error("inventory invariant violated")
		os.Exit(1)
	}
}

func run(ctx context.Context, baseURL string, copies, requests int) (*experimentResult, error) {
	itemID, err := createItem(ctx, baseURL, copies)
	if err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}

	memberID, err := registerMember(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("register member: %w", err)
	}

	recordIDs := make([]string, requests)
	for i := range recordIDs {
		id, err := createRequest(ctx, baseURL, memberID, itemID)
		if err != nil {
			return nil, fmt.Errorf("file borrow request: %w", err)
		}
		recordIDs[i] = id
	}

	result := &experimentResult{Requests: requests}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, recordID := range recordIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := approve(ctx, baseURL, recordID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				result.Failures++
			case status == http.StatusOK:
				result.Approved++
			case status == http.StatusConflict:
				result.Refused++
			default:
				result.Failures++
			}
		}()
	}
	wg.Wait()

	available, err := itemAvailable(ctx, baseURL, itemID)
	if err != nil {
		return nil, fmt.Errorf("read item availability: %w", err)
	}

	result.AvailableAt = available
	wantApproved := min(copies, requests)
	result.InvariantOK = result.Failures == 0 &&
		result.Approved == wantApproved &&
		available == copies-wantApproved &&
		available >= 0 && available <= copies

	return result, nil
}

func createItem(ctx context.Context, baseURL string, copies int) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := post(ctx, baseURL+"/items", map[string]any{
		"isbn":         "9780141439518",
		"title":        "Load Test Book",
		"author":       "Nobody",
		"total_copies": copies,
	}, &resp)
	return resp.ID, err
}

func registerMember(ctx context.Context, baseURL string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := post(ctx, baseURL+"/members", map[string]any{
		"email": fmt.Sprintf("loadgen-%d@example.com", time.Now().UnixNano()),
		"name":  "Load Generator",
	}, &resp)
	return resp.ID, err
}

func createRequest(ctx context.Context, baseURL, memberID, itemID string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := post(ctx, baseURL+"/circulation/requests", map[string]any{
		"user_id": memberID,
		"item_id": itemID,
	}, &resp)
	return resp.ID, err
}

func approve(ctx context.Context, baseURL, recordID string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/circulation/requests/%s/approve", baseURL, recordID), nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func itemAvailable(ctx context.Context, baseURL, itemID string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/items/"+itemID, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var item struct {
		Available int `json:"available"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return 0, err
	}
	return item.Available, nil
}

func post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
