package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update tabloom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("remote_url:            %s\n", cfg.RemoteURL)
		fmt.Printf("api_key set:           %v\n", cfg.APIKey != "")
		fmt.Printf("http_timeout_sec:      %d\n", cfg.HTTPTimeoutSec)
		fmt.Printf("retry_max_attempts:    %d\n", cfg.RetryMaxAttempts)
		fmt.Printf("retry_base_delay_ms:   %d\n", cfg.RetryBaseDelayMs)
		fmt.Printf("retry_max_delay_ms:    %d\n", cfg.RetryMaxDelayMs)
		fmt.Printf("workspaces_dir:        %s\n", cfg.WorkspacesDir)
		fmt.Printf("quality_cache_ttl_sec: %d\n", cfg.QualityCacheTTLSec)
		fmt.Printf("csv_delimiter:         %q\n", cfg.CSVDelimiter)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration key and persist it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		switch key {
		case "remote_url":
			cfg.RemoteURL = value
		case "api_key":
			cfg.APIKey = value
		case "workspaces_dir":
			cfg.WorkspacesDir = value
		case "csv_delimiter":
			cfg.CSVDelimiter = value
		case "http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms", "quality_cache_ttl_sec":
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%s expects an integer: %w", key, err)
			}
			switch key {
			case "http_timeout_sec":
				cfg.HTTPTimeoutSec = n
			case "retry_max_attempts":
				cfg.RetryMaxAttempts = n
			case "retry_base_delay_ms":
				cfg.RetryBaseDelayMs = n
			case "retry_max_delay_ms":
				cfg.RetryMaxDelayMs = n
			case "quality_cache_ttl_sec":
				cfg.QualityCacheTTLSec = n
			}
		default:
			return fmt.Errorf("unknown config key %q", key)
		}
		if err := saveConfig(); err != nil {
			return err
		}
		fmt.Println("✓ Config updated")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
