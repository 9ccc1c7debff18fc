package main

import (
	"os"
	"path/filepath"

	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func configureLogging(cfg LogConfig) error {
	log.SetLevel(cfg.GetLogLevel())
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	if cfg.FilePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), os.ModePerm); err != nil {
		return err
	}
	rotated := &lumberjack.Logger{
		Filename: cfg.FilePath,
		MaxSize:  100,
		MaxAge:   cfg.MaxAgeDays,
		Compress: true,
	}
	hook := lfshook.NewHook(lfshook.WriterMap{
		log.PanicLevel: rotated,
		log.FatalLevel: rotated,
		log.ErrorLevel: rotated,
		log.WarnLevel:  rotated,
		log.InfoLevel:  rotated,
		log.DebugLevel: rotated,
	}, &log.TextFormatter{DisableColors: true, FullTimestamp: true})
	log.AddHook(hook)
	return nil
}
