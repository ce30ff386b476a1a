package cli

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/hearthml/hearth/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from the --data-dir flag,
// the HEARTH_DATA_DIR env var, or ~/.hearth as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("HEARTH_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.hearth"
}

// openStore opens the configured database backend. SQLite is the default;
// set db.driver to "postgres" and db.dsn to use an external database.
func openStore() (*store.Store, error) {
	driver := viper.GetString("db.driver")
	if driver == "" {
		driver = store.DriverSQLite
	}
	switch driver {
	case store.DriverPostgres:
		return store.Open(store.DriverPostgres, viper.GetString("db.dsn"))
	default:
		dir := viper.GetString("db.data_dir")
		if dir == "" {
			dir = resolveDataDir()
		}
		return store.Open(store.DriverSQLite, dir)
	}
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
