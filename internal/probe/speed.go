package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SpeedTestPayload reports measured throughput against the reference
// endpoint in megabits per second.
type SpeedTestPayload struct {
	DownloadMbps    float64 `json:"download_mbps"`
	UploadMbps      float64 `json:"upload_mbps"`
	PingMS          float64 `json:"ping_ms"`
	BytesDownloaded int64   `json:"bytes_downloaded"`
	BytesUploaded   int64   `json:"bytes_uploaded"`
}

// SpeedTestProber downloads and uploads a bounded amount of data
// against a reference endpoint. The target itself is not involved; the
// probe measures the local link, so it runs for any target kind.
type SpeedTestProber struct {
	DownloadURL   string
	UploadURL     string
	DownloadBytes int64
	UploadBytes   int64
	Timeout       time.Duration

	// Client is overridable in tests; nil uses a client bound to Timeout.
	Client *http.Client
}

func (s *SpeedTestProber) Kind() Kind { return KindSpeedTest }

func (s *SpeedTestProber) Probe(ctx context.Context, target Target) Result {
	downloadURL := s.DownloadURL
	if downloadURL == "" {
		downloadURL = DefaultDownloadURL
	}
	uploadURL := s.UploadURL
	if uploadURL == "" {
		uploadURL = DefaultUploadURL
	}
	downloadBytes := s.DownloadBytes
	if downloadBytes <= 0 {
		downloadBytes = DefaultDownloadBytes
	}
	uploadBytes := s.UploadBytes
	if uploadBytes <= 0 {
		uploadBytes = DefaultUploadBytes
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: s.Timeout}
	}

	payload := &SpeedTestPayload{}

	// Reachability / latency: a tiny GET against the reference host.
	pingMS, err := httpPing(ctx, client, downloadURL)
	if err != nil {
		return failedResult(KindSpeedTest, fmt.Errorf("reference endpoint unreachable: %w", err))
	}
	payload.PingMS = pingMS

	n, elapsed, err := measureDownload(ctx, client, downloadURL, downloadBytes)
	if err != nil {
		return failedResult(KindSpeedTest, fmt.Errorf("download test failed: %w", err))
	}
	payload.BytesDownloaded = n
	payload.DownloadMbps = mbps(n, elapsed)

	// Upload failure degrades the result instead of discarding the
	// download measurement.
	n, elapsed, err = measureUpload(ctx, client, uploadURL, uploadBytes)
	if err != nil {
		res := Result{Status: StatusPartial, SpeedTest: payload}
		return res
	}
	payload.BytesUploaded = n
	payload.UploadMbps = mbps(n, elapsed)

	return Result{Status: StatusSuccess, SpeedTest: payload}
}

func httpPing(ctx context.Context, client *http.Client, rawURL string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return durationMS(time.Since(start)), nil
}

func measureDownload(ctx context.Context, client *http.Client, rawURL string, limit int64) (int64, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return 0, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	n, err := io.Copy(io.Discard, io.LimitReader(resp.Body, limit))
	elapsed := time.Since(start)
	if err != nil && n == 0 {
		return 0, 0, err
	}
	return n, elapsed, nil
}

func measureUpload(ctx context.Context, client *http.Client, rawURL string, size int64) (int64, time.Duration, error) {
	body := bytes.Repeat([]byte{'0'}, int(size))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return 0, 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return size, time.Since(start), nil
}

func mbps(n int64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(n) * 8 / (secs * 1_000_000)
}
