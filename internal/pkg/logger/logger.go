package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"upsc-prep/internal/config"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var (
	Logger    *log.Logger
	logLevel  LogLevel
	logFormat string
)

// Setup 初始化日志系统
func Setup() error {
	cfg := config.GlobalConfig.Log

	// 设置日志级别
	switch strings.ToLower(cfg.Level) {
	case "debug":
		logLevel = DEBUG
	case "info":
		logLevel = INFO
	case "warn":
		logLevel = WARN
	case "error":
		logLevel = ERROR
	case "fatal":
		logLevel = FATAL
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	// 设置日志格式
	logFormat = strings.ToLower(cfg.Format)
	if logFormat != "json" && logFormat != "text" {
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}

	// 设置输出方式
	var writer io.Writer
	switch strings.ToLower(cfg.Output) {
	case "console":
		writer = os.Stdout
	case "file":
		fileWriter, err := openLogFile(cfg)
		if err != nil {
			return err
		}
		writer = fileWriter
	case "both":
		fileWriter, err := openLogFile(cfg)
		if err != nil {
			return err
		}
		writer = io.MultiWriter(os.Stdout, fileWriter)
	default:
		return fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	Logger = log.New(writer, "", 0)

	Info("Logger initialized successfully")
	return nil
}

// openLogFile 打开日志文件，目录不存在时先创建
func openLogFile(cfg config.LogConfig) (io.Writer, error) {
	logDir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	return file, nil
}

// formatMessage 格式化日志消息
func formatMessage(level LogLevel, msg string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if logFormat == "json" {
		line, err := json.Marshal(map[string]string{
			"time":  timestamp,
			"level": levelNames[level],
			"msg":   msg,
		})
		if err == nil {
			return string(line)
		}
		// JSON编码失败时退回文本格式
	}
	return fmt.Sprintf("[%s] %s: %s", timestamp, levelNames[level], msg)
}

// shouldLog 检查是否应该记录日志
func shouldLog(level LogLevel) bool {
	return level >= logLevel
}

// GetLogger 获取日志实例
func GetLogger() *log.Logger {
	if Logger == nil {
		// 如果日志未初始化，使用默认配置
		Logger = log.New(os.Stdout, "", 0)
	}
	return Logger
}

func output(level LogLevel, msg string) {
	if shouldLog(level) {
		GetLogger().Print(formatMessage(level, msg))
	}
}

// 便捷方法
func Debug(args ...interface{}) {
	output(DEBUG, fmt.Sprint(args...))
}

func Debugf(format string, args ...interface{}) {
	output(DEBUG, fmt.Sprintf(format, args...))
}

func Info(args ...interface{}) {
	output(INFO, fmt.Sprint(args...))
}

func Infof(format string, args ...interface{}) {
	output(INFO, fmt.Sprintf(format, args...))
}

func Warn(args ...interface{}) {
	output(WARN, fmt.Sprint(args...))
}

func Warnf(format string, args ...interface{}) {
	output(WARN, fmt.Sprintf(format, args...))
}

func Error(args ...interface{}) {
	output(ERROR, fmt.Sprint(args...))
}

func Errorf(format string, args ...interface{}) {
	output(ERROR, fmt.Sprintf(format, args...))
}

func Fatal(args ...interface{}) {
	output(FATAL, fmt.Sprint(args...))
	os.Exit(1)
}

func Fatalf(format string, args ...interface{}) {
	output(FATAL, fmt.Sprintf(format, args...))
	os.Exit(1)
}
