package cli

import (
	"fmt"
	"os"

	"github.com/ssdsyncer/ssd-syncer/internal/config"
)

// loadConfig resolves the active config path (the --config flag, or the
// default ~/.ssd-syncer/config.toml) and loads it. A missing file is
// reported to the caller rather than silently defaulted, since every
// command except init requires one to already exist.
func loadConfig() (*config.Config, string, error) {
	path := globalFlags.ConfigFile
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, "", err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if os.IsNotExist(err) {
		return nil, path, fmt.Errorf("no config at %s; run `ssd-syncer init <machine-name>` first", path)
	}
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func saveConfig(cfg *config.Config, path string) error {
	return config.Save(cfg, path)
}
