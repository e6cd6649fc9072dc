// Package config provides configuration management for the song catalog tools.
//
// It utilizes Viper for loading configuration from environment variables, an
// optional .env file and an optional song-catalog.yaml file. Defaults are
// declared next to each field with a `default` struct tag and registered
// through reflection.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Catalog: catalog location, artifact lookup, sync workers, conflict policy
//   - Database: song store connection details (MySQL or SQLite)
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.Driver)
package config
