package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/jstat/internal/config"
	"github.com/derickschaefer/jstat/internal/render"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage jstat configuration",
	Long:  `Read and write jstat configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
		fmt.Fprintf(cmd.OutOrStdout(), "  Relative source names resolve against %s.\n", config.DefaultBaseURL)
		return nil
	},
}

// configView is the resolved configuration as shown by `config show`.
type configView struct {
	Format      string  `json:"default_format" yaml:"default_format"`
	Timeout     string  `json:"timeout" yaml:"timeout"`
	Concurrency int     `json:"concurrency" yaml:"concurrency"`
	Rate        float64 `json:"rate" yaml:"rate"`
	BaseURL     string  `json:"base_url" yaml:"base_url"`
	DBPath      string  `json:"db_path" yaml:"db_path"`
	UserAgent   string  `json:"user_agent" yaml:"user_agent"`
	ConfigFile  string  `json:"config_file" yaml:"config_file"`
}

var configShowCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"get"},
	Short:   "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}
		view := configView{
			Format:      cfg.Format,
			Timeout:     cfg.Timeout.String(),
			Concurrency: cfg.Concurrency,
			Rate:        cfg.Rate,
			BaseURL:     cfg.BaseURL,
			DBPath:      cfg.DBPath,
			UserAgent:   cfg.UserAgent,
			ConfigFile:  src,
		}

		out := cmd.OutOrStdout()
		switch resolveFormat(cfg.Format) {
		case render.FormatJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		case render.FormatYAML:
			enc := yaml.NewEncoder(out)
			if err := enc.Encode(view); err != nil {
				return err
			}
			return enc.Close()
		default:
			printKVTable(cmd, [][]string{
				{"default_format", view.Format},
				{"timeout", view.Timeout},
				{"concurrency", strconv.Itoa(view.Concurrency)},
				{"rate", fmt.Sprintf("%.1f req/s", view.Rate)},
				{"base_url", view.BaseURL},
				{"db_path", view.DBPath},
				{"user_agent", view.UserAgent},
				{"config_file", view.ConfigFile},
			})
			return nil
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])
		val := args[1]

		// Load existing file or start from template
		var f config.File
		existing, path, err := loadConfigFile()
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			path = config.DefaultConfigFile
			f = config.Template()
		} else {
			f = *existing
		}

		switch key {
		case "default_format", "format":
			if !render.ValidFormat(val) {
				return fmt.Errorf("unknown format %q (valid: %s)", val, strings.Join(render.Formats, "|"))
			}
			f.DefaultFormat = val
		case "timeout":
			f.Timeout = val
		case "concurrency":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("concurrency must be an integer")
			}
			f.Concurrency = n
		case "rate":
			r, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("rate must be a number")
			}
			f.Rate = r
		case "base_url":
			f.BaseURL = val
		case "db_path":
			f.DBPath = val
		case "user_agent":
			f.UserAgent = val
		default:
			return fmt.Errorf("unknown config key: %q\n\nValid keys: default_format, timeout, concurrency, rate, base_url, db_path, user_agent", key)
		}

		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", key, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// loadConfigFile reads config.json from cwd; used by configSetCmd.
func loadConfigFile() (*config.File, string, error) {
	path := config.DefaultConfigFile
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	var f config.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, path, nil
}

// printKVTable renders a two-column key/value table using aligned columns.
func printKVTable(cmd *cobra.Command, rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Fprintf(cmd.OutOrStdout(), "  %s%s  %s\n", r[0], padding, r[1])
	}
}
