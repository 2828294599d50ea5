package logger

import (
	"path"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *Logger

type Logger struct {
	*zap.SugaredLogger
}

const logDir = "./relay"

func init() {
	logger = NewLogger(logDir)
}

func getEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
}

func getLogWriter(dir string) zapcore.WriteSyncer {
	destination := path.Join(dir, "relay.log")
	lumberJackLogger := &lumberjack.Logger{
		Filename:   destination,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   false,
	}

	return zapcore.AddSync(lumberJackLogger)
}

func NewLogger(dir string) *Logger {
	writeSyncer := getLogWriter(dir)
	encoder := getEncoder()
	core := zapcore.NewCore(encoder, writeSyncer, zapcore.DebugLevel)

	log := zap.New(core, zap.AddCaller())
	return &Logger{log.Sugar()}
}

func SetLoggerDir(dir string) {
	defer logger.Sync()
	logger = NewLogger(dir)
}

func GetLogger() *Logger {
	return logger
}

func SetLogger(newLogger *Logger) {
	defer logger.Sync()
	logger = newLogger
}

func (self *Logger) Write(b []byte) (n int, err error) {
	self.Info(string(b))
	return len(b), nil
}

func LoggerWriter() *Logger {
	writeSyncer := getLogWriter(logDir)
	encoder := getEncoder()
	core := zapcore.NewCore(encoder, writeSyncer, zapcore.DebugLevel)

	log := zap.New(core)
	return &Logger{log.Sugar()}
}

func Infow(msg string, keysAndValues ...interface{}) {
	logger.Infow(msg, keysAndValues...)
}

func Warnw(msg string, keysAndValues ...interface{}) {
	logger.Warnw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	logger.Errorw(msg, keysAndValues...)
}

func Info(args ...interface{}) {
	logger.Info(args...)
}

func Warn(args ...interface{}) {
	logger.Warn(args...)
}

func Error(args ...interface{}) {
	logger.Error(args...)
}

func Fatal(args ...interface{}) {
	logger.Fatal(args...)
}

func Panic(args ...interface{}) {
	logger.Panic(args...)
}

func Sync() error {
	return logger.Sync()
}
