package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaincodec/chaincodec/internal/config"
	"github.com/chaincodec/chaincodec/internal/csdl"
)

const defaultHTTPTimeout = 8 * time.Second

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config, CSDL schema directories, and RPC connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		fmt.Fprintf(out, "config OK (version %d)\n", cfg.Version)

		client := &http.Client{Timeout: defaultHTTPTimeout}
		failures := 0

		for _, ch := range cfg.Chains {
			for _, dir := range ch.CSDLDirs {
				schemas, err := csdl.LoadDir(dir)
				if err != nil {
					failures++
					fmt.Fprintf(out, "- chain %s: csdl dir %s: ERROR %v\n", ch.Slug, dir, err)
					continue
				}
				fmt.Fprintf(out, "- chain %s: csdl dir %s: %d schema(s) OK\n", ch.Slug, dir, len(schemas))
			}

			switch strings.ToLower(ch.Family) {
			case "evm":
				chainID, err := pingEVM(cmd.Context(), client, ch.RPCURL)
				if err != nil {
					failures++
					fmt.Fprintf(out, "- chain %s (evm): ERROR %v\n", ch.Slug, err)
					continue
				}
				fmt.Fprintf(out, "- chain %s (evm): chainId %s OK\n", ch.Slug, chainID)
			case "solana":
				if err := pingSolana(cmd.Context(), client, ch.RPCURL); err != nil {
					failures++
					fmt.Fprintf(out, "- chain %s (solana): ERROR %v\n", ch.Slug, err)
					continue
				}
				fmt.Fprintf(out, "- chain %s (solana): OK\n", ch.Slug)
			case "cosmos":
				if err := pingCosmos(cmd.Context(), client, ch.RPCURL); err != nil {
					failures++
					fmt.Fprintf(out, "- chain %s (cosmos): ERROR %v\n", ch.Slug, err)
					continue
				}
				fmt.Fprintf(out, "- chain %s (cosmos): OK\n", ch.Slug)
			}
		}

		if failures > 0 {
			return fmt.Errorf("validate: %d check(s) failed", failures)
		}

		fmt.Fprintln(out, "validate: success")
		return nil
	},
}

func pingEVM(ctx context.Context, client *http.Client, url string) (string, error) {
	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "eth_chainId",
		"params":  []any{},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call eth_chainId: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("rpc status %d", resp.StatusCode)
	}

	var rpcResp struct {
		Result string `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return "", fmt.Errorf("decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("rpc error: %s", rpcResp.Error.Message)
	}
	if rpcResp.Result == "" {
		return "", fmt.Errorf("empty chainId result")
	}
	return rpcResp.Result, nil
}

func pingSolana(ctx context.Context, client *http.Client, url string) error {
	payload := map[string]any{"jsonrpc": "2.0", "id": 1, "method": "getHealth"}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call getHealth: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("rpc status %d", resp.StatusCode)
	}
	return nil
}

func pingCosmos(ctx context.Context, client *http.Client, baseURL string) error {
	url := strings.TrimRight(baseURL, "/") + "/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
