// Package config loads runtime configuration for the tripkeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-k string   backend: grpc, memory, sqlite or postgres
//	-a string   address:port of the gateway gRPC endpoint
//	-d string   document store DSN (sqlite, postgres)
//	-b string   S3 bucket for local backends; empty keeps blobs in memory
//	-e string   S3 endpoint
//	-g string   S3 region
//	-u string   S3 access key
//	-p string   S3 secret key
//	-l int      load timeout (seconds)
//	-m string   metrics bind address, empty to disable
//	-i string   user id to sign in as
//	-n string   email of that user
//	-t string   access token
//	-s string   development signing secret used to mint and refresh tokens
//	-r          print a report of the user's data and exit
//
// # JSON schema
//
// Durations use timex.Duration, so values are strings like "10s" or integer
// nanoseconds:
//
//	{
//	  "backend": "grpc",
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "load_timeout": "10s",
//	  "user_id": "u1",
//	  "dev_secret": "secretKey"
//	}
package config
