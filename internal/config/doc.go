// Package config provides configuration loading for the dippy client.
//
// Configuration lives in dippy.json or dippy.toml. Values not set in the
// file take their defaults, and DIPPY_* environment variables override
// both.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "url": "wss://diplicity.example.com/ws",
//	    "headers": { "Authorization": "Bearer ..." }
//	  },
//	  "cache": {
//	    "backend": "sqlite",
//	    "path": "dippy-cache.db",
//	    "timeout": "2s"
//	  },
//	  "transport": {
//	    "read_timeout": "60s",
//	    "write_timeout": "10s",
//	    "heartbeat": "30s",
//	    "max_frame_size": 65536
//	  },
//	  "registry": { "resend": "always" },
//	  "log": { "level": "info", "format": "text" },
//	  "metrics": { "addr": ":9090" }
//	}
//
// # Environment
//
// Every field has an environment name built from its section and key, for
// example DIPPY_SERVER_URL, DIPPY_CACHE_BACKEND or DIPPY_LOG_LEVEL.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Server:", cfg.Server.URL)
package config
