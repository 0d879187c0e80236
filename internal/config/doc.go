// Package config loads the stationboard TOML configuration.
//
// # Discovery
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/stationboard/config.toml
//  3. If the file doesn't exist, use Default()
//  4. Empty or missing fields keep their defaults
//
// # Format
//
//	title = "Horsham Trains"
//	log_level = "info"            # debug, info, warn, error
//	log_path = "~/.local/state/stationboard/stationboard.log"
//	dotenv = "~/.config/stationboard/.env"
//	listen = ""                   # status server address, empty disables
//
//	[transit]
//	base_url = "https://huxley2.azurewebsites.net"
//	station = "VIC"               # CRS code
//	max_results = 8
//	every = "2m"                  # fetch cadence
//	min_interval = "30s"          # rate limit floor
//	timeout = "10s"
//	token_file = "~/rail_token.txt"
//	token_env = "STATIONBOARD_TRANSIT_TOKEN"
//
//	[weather]
//	base_url = "https://api.openweathermap.org"
//	location_id = "2646557"
//	units = "metric"
//	max_points = 4
//	every = "30m"
//	min_interval = "5m"
//	timeout = "10s"
//	key_file = ""
//	key_env = "STATIONBOARD_WEATHER_KEY"
//
//	[display]
//	refresh = "5s"
//	theme = "Departure"
//
// Durations use Go duration syntax and must be positive. A min_interval
// larger than its cadence is rejected, since every scheduled fetch would
// then wait on the rate limiter.
//
// Credentials are not read here; see package secrets.
package config
