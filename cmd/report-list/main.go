// Command report-list prints quiz reports archived in S3.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kyiku/arith-quiz-back/internal/config"
	"github.com/kyiku/arith-quiz-back/internal/storage"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	day := flag.String("day", time.Now().UTC().Format(dayLayout), "archive day (YYYY-MM-DD, UTC)")
	key := flag.String("key", "", "print the rounds of one report instead of listing a day")
	flag.Parse()

	if cfg.S3Bucket == "" {
		log.Fatal().Msg("S3_BUCKET is not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AWS config")
	}
	archive := storage.NewReportArchive(storage.NewS3Adapter(s3.NewFromConfig(awsCfg), cfg.S3Bucket), cfg.ReportPrefix)

	if *key != "" {
		err = printReport(os.Stdout, archive, *key)
	} else {
		var t time.Time
		t, err = time.Parse(dayLayout, *day)
		if err != nil {
			log.Fatal().Err(err).Str("day", *day).Msg("invalid day")
		}
		err = printDay(os.Stdout, archive, t)
	}
	if err != nil {
		log.Error().Err(err).Msg("report-list failed")
		os.Exit(1)
	}
}
