// Package config loads diepwire settings from diepwire.json or diepwire.toml.
//
// Files are overlaid on Default, so a file only needs the keys it changes.
// DIEPWIRE_CONFIG names a file explicitly; otherwise the working directory
// and its parents are searched.
//
// # Configuration File Structure
//
//	{
//	  "log": {"level": "debug", "format": "json"},
//	  "tables": {"tanks": "./tanks.json"},
//	  "inspect": {"addr": ":8080", "maxBody": 1048576, "readTimeout": "10s"},
//	  "tap": {"url": "wss://example.invalid/", "origin": "https://diep.io", "record": true},
//	  "capture": {"backend": "s3", "bucket": "captures", "prefix": "diep", "region": "us-east-1"},
//	  "metrics": {"namespace": "diepwire"}
//	}
//
// The TOML form uses the same keys:
//
//	[capture]
//	backend = "dir"
//	dir = "./captures"
//
// # Usage
//
//	cfg, err := config.Resolve()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger := cfg.Logger(os.Stderr)
package config
