package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mpdhub/internal/configflow"
	"mpdhub/internal/models"
	"mpdhub/internal/mpd"
	"mpdhub/internal/store"
)

// legacyConfig is the platform-list layout older deployments used:
//
//	media_player:
//	  - platform: mpd
//	    host: 192.168.1.20
//	    password: secret
type legacyConfig struct {
	MediaPlayer []legacyPlatform `yaml:"media_player"`
}

type legacyPlatform struct {
	Platform               string `yaml:"platform"`
	models.ConnectionInput `yaml:",inline"`
}

func parseLegacy(data []byte) ([]models.ConnectionInput, error) {
	var cfg legacyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing legacy config: %w", err)
	}
	var out []models.ConnectionInput
	for _, p := range cfg.MediaPlayer {
		if p.Platform == models.Domain {
			out = append(out, p.ConnectionInput)
		}
	}
	return out, nil
}

type importSummary struct {
	Created int
	Aborted int
}

func newImportCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import MPD servers from a legacy YAML platform config",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			inputs, err := parseLegacy(data)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			flows := configflow.NewManager(configflow.New(mpd.NewClient))
			sum, err := runImport(cmd.Context(), s, flows, inputs)
			if err != nil {
				return err
			}
			slog.Info("import finished", "created", sum.Created, "aborted", sum.Aborted)
			if sum.Aborted > 0 {
				return fmt.Errorf("%d of %d imports aborted", sum.Aborted, len(inputs))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Legacy YAML file to import.")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(ctx context.Context, s *store.Store, flows *configflow.Manager, inputs []models.ConnectionInput) (importSummary, error) {
	var sum importSummary
	for _, in := range inputs {
		p, err := flows.Init(ctx, models.SourceImport, &in)
		if err != nil {
			return sum, err
		}
		if p.Result.Type != configflow.ResultCreateEntry {
			slog.Warn("import aborted", "host", in.Host, "reason", p.Result.Reason)
			sum.Aborted++
			continue
		}
		entry, err := configflow.NewEntry(models.SourceImport, p.Result)
		if err != nil {
			return sum, err
		}
		if err := s.CreateEntry(&entry); err != nil {
			return sum, fmt.Errorf("saving %s: %w", entry.Title, err)
		}
		slog.Info("entry imported", "entry_id", entry.ID, "title", entry.Title, "addr", entry.Data.Addr())
		sum.Created++
	}
	return sum, nil
}
