// Package config loads and validates switch controller configuration.
//
// Values are resolved in order: built-in defaults, then the YAML file, then
// GRAYLOGIC_* environment variables. Validate rejects settings the
// correlation engine cannot run with (a ceiling below one, a non-positive
// timeout, an unknown protocol version).
//
// Secrets (MQTT password, InfluxDB token, JWT secret) should be supplied via
// environment variables and the config file kept at 0600.
//
// Usage:
//
//	cfg, err := config.Load("configs/switchd.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Controller.MaxInFlight)
package config
