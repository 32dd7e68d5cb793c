// Package config provides configuration parsing for fibertree.
//
// The configuration is stored in fibertree.json in the working directory
// or one of its parents. This package handles loading, saving, and
// validating configuration. Durations are Go duration strings.
//
// # Configuration File Structure
//
//	{
//	  "scheduler": {
//	    "slice": "8ms",
//	    "minRemaining": "1ms",
//	    "queueSize": 256
//	  },
//	  "server": {
//	    "host": "localhost",
//	    "port": 7070,
//	    "demo": "counter"
//	  },
//	  "metrics": { "enabled": true, "namespace": "fibertree" },
//	  "tracing": { "enabled": false, "tracerName": "fibertree" },
//	  "snapshot": {
//	    "enabled": true,
//	    "backend": "s3",
//	    "bucket": "previews",
//	    "prefix": "fibertree/",
//	    "region": "us-east-1",
//	    "keep": 20
//	  },
//	  "log": { "level": "info", "format": "text" }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
