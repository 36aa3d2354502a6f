package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

type healthOptions struct {
	baseURL string
	timeout time.Duration
	ci      bool
}

func newHealthCommand(opts *options) *cobra.Command {
	hopts := &healthOptions{}
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe liveness and readiness of a running instance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), hopts.timeout)
			defer cancel()
			details, err := probeHealth(ctx, hopts.baseURL)
			if hopts.ci {
				printCIResult(opts.out, err == nil, "health", details, err)
			} else {
				printResult(opts.out, err == nil, "health "+hopts.baseURL, details, err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&hopts.baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().DurationVar(&hopts.timeout, "timeout", 10*time.Second, "overall probe timeout")
	cmd.Flags().BoolVar(&hopts.ci, "ci", false, "non-interactive machine-readable output")
	return cmd
}

func probeHealth(ctx context.Context, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	client := &http.Client{Timeout: 5 * time.Second}
	var details []string
	for _, path := range []string{"/health/live", "/health/ready"} {
		status, body, err := getJSON(ctx, client, base.ResolveReference(&url.URL{Path: path}).String())
		if err != nil {
			return details, fmt.Errorf("%s: %w", path, err)
		}
		details = append(details, fmt.Sprintf("%s status=%d", path, status))
		if status != http.StatusOK {
			return details, fmt.Errorf("%s returned %d: %s", path, status, body)
		}
	}
	return details, nil
}

func getJSON(ctx context.Context, client *http.Client, target string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = resp.Body.Close() }()
	var payload json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return resp.StatusCode, "", fmt.Errorf("decode body: %w", err)
	}
	return resp.StatusCode, string(payload), nil
}
