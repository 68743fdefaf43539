// Package transcode wraps the external ffmpeg binary. The pipeline
// treats it as a black box: file in, file out.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// OutputPath returns the mp3 path next to the given video file.
func OutputPath(videoPath string) string {
	ext := filepath.Ext(videoPath)
	return strings.TrimSuffix(videoPath, ext) + ".mp3"
}

// ExtractMP3 extracts the audio track of videoPath into an mp3 next to
// it and returns the new path.
func ExtractMP3(ctx context.Context, videoPath string) (string, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return "", fmt.Errorf("ffmpeg not found: please install ffmpeg to convert files")
	}

	outputPath := OutputPath(videoPath)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "libmp3lame",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
	}
	return outputPath, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
