package albite

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger는 설정에 맞는 tint 기반 slog 로거를 생성합니다.
func NewLogger(config *Config, w io.Writer) *slog.Logger {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := getProjectRoot(filename)

	// 소스 경로를 프로젝트 루트 기준 상대 경로로 변환합니다.
	replaceAttr := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key != slog.SourceKey {
			return a
		}
		source, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		if projectRoot != "" && strings.HasPrefix(source.File, projectRoot+string(os.PathSeparator)) {
			source.File = source.File[len(projectRoot)+1:]
		}
		return slog.Any(a.Key, source)
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:       config.SlogLevel(),
		AddSource:   true,
		NoColor:     w != os.Stdout && w != os.Stderr,
		TimeFormat:  time.RFC3339,
		ReplaceAttr: replaceAttr,
	})

	return slog.New(handler)
}

// InitLogger는 애플리케이션의 기본 slog 로거를 설정합니다.
func InitLogger(config *Config) *slog.Logger {
	logger := NewLogger(config, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

// getProjectRoot는 이 파일 경로에서 모듈 루트(internal/albite 의 두 단계 위)를 계산합니다.
func getProjectRoot(path string) string {
	dir := path
	for depth := 0; depth < 3; depth++ {
		i := strings.LastIndexByte(dir, os.PathSeparator)
		if i < 0 {
			return ""
		}
		dir = dir[:i]
	}
	return dir
}
