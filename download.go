package bodhi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

func validateAudioURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewError(ErrorStatusInvalidURL, "invalid URL format: "+raw)
	}
	return nil
}

// downloadAudio copies the body at audioURL into a temporary file and returns
// its path. The caller removes the file.
func downloadAudio(ctx context.Context, client *http.Client, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", NewErrorWithCause(ErrorStatusInvalidURL, "invalid URL: "+audioURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", NewErrorWithCause(ErrorStatusAudioDownloadError, "failed to download audio from URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", NewErrorWithCode(ErrorStatusAudioDownloadError,
			fmt.Sprintf("failed to download audio from URL: %s", resp.Status), resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "bodhi-audio-*.wav")
	if err != nil {
		return "", NewErrorWithCause(ErrorStatusAudioDownloadError, "failed to create temporary file", err)
	}

	n, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", NewErrorWithCause(ErrorStatusAudioDownloadError, "failed to download audio from URL", err)
	}
	if n == 0 {
		os.Remove(tmp.Name())
		return "", NewError(ErrorStatusEmptyAudio, "downloaded audio file is empty")
	}

	return tmp.Name(), nil
}
