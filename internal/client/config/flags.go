package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/flagx"
)

var knownFlags = []string{"-k", "-a", "-d", "-b", "-e", "-g", "-u", "-p", "-l", "-m", "-i", "-n", "-t", "-s", "-r"}

// parseFlags populates Config fields from command-line flags. Only the flags
// listed in the package documentation are looked at.
func parseFlags(cfg *Config) {
	parseArgs(cfg, os.Args[1:])
}

func parseArgs(cfg *Config, osArgs []string) {
	args := flagx.FilterArgs(osArgs, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Backend, "k", cfg.Backend, "backend (grpc, memory, sqlite, postgres)")
	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the gateway server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "document store DSN")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Endpoint, "e", cfg.S3Endpoint, "S3 endpoint")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")
	loadTimeout := fs.Int("l", int(cfg.LoadTimeout.Seconds()), "load timeout (in seconds)")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics address")
	fs.StringVar(&cfg.UserID, "i", cfg.UserID, "user id")
	fs.StringVar(&cfg.Email, "n", cfg.Email, "user email")
	fs.StringVar(&cfg.Token, "t", cfg.Token, "access token")
	fs.StringVar(&cfg.DevSecret, "s", cfg.DevSecret, "development signing secret")
	fs.BoolVar(&cfg.Report, "r", cfg.Report, "print a report and exit")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.LoadTimeout = time.Duration(*loadTimeout) * time.Second
}
