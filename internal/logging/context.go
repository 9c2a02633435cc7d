package logging

import "context"

type contextKey string

const (
	fileKey      contextKey = "file"
	componentKey contextKey = "component"
)

// WithFile tags ctx with the file being reviewed.
func WithFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, fileKey, path)
}

// FileFrom returns the file set by WithFile.
func FileFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	path, ok := ctx.Value(fileKey).(string)
	return path, ok && path != ""
}

// WithComponent tags ctx with the name of the subsystem logging.
func WithComponent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, componentKey, name)
}

func ComponentFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(componentKey).(string)
	return name
}
