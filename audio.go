package bodhi

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// WAVFormat describes the PCM layout of a WAV file.
type WAVFormat struct {
	AudioFormat   uint16
	Channels      int
	SampleRate    int
	BitsPerSample int
	BlockAlign    int
	DataSize      int64
}

// FramesFor returns the number of frames covering d at the file's sample rate.
func (f WAVFormat) FramesFor(d time.Duration) int {
	frames := int(int64(f.SampleRate) * int64(d) / int64(time.Second))
	if frames < 1 {
		frames = 1
	}
	return frames
}

// ChunkSize returns the byte size of a frame-aligned chunk of duration d.
func (f WAVFormat) ChunkSize(d time.Duration) int {
	return f.FramesFor(d) * f.BlockAlign
}

// wavFile streams the data chunk of a WAV file.
type wavFile struct {
	format WAVFormat
	file   *os.File
	data   io.Reader
}

func openWAV(path string) (*wavFile, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewErrorWithCause(ErrorStatusFileNotFound, "audio file not found: "+path, err)
		}
		return nil, NewErrorWithCause(ErrorStatusStreamingError, "failed to open audio file", err)
	}

	br := bufio.NewReader(f)
	format, err := ReadWAVHeader(br)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &wavFile{
		format: *format,
		file:   f,
		data:   io.LimitReader(br, format.DataSize),
	}, nil
}

// readChunk fills buf with the next chunk of PCM data. It returns io.EOF
// once the data chunk is exhausted.
func (w *wavFile) readChunk(buf []byte) (int, error) {
	n, err := io.ReadFull(w.data, buf)
	if err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}

func (w *wavFile) Close() error {
	return w.file.Close()
}

// maxFmtChunkSize covers WAVE_FORMAT_EXTENSIBLE, the largest standard fmt chunk.
const maxFmtChunkSize = 40

// ReadWAVHeader parses the RIFF header of r up to the start of the data
// chunk. Chunks other than "fmt " and "data" are skipped.
func ReadWAVHeader(r io.Reader) (*WAVFormat, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, NewErrorWithCause(ErrorStatusInvalidAudioFormat, "audio file is too short for a WAV header", err)
	}
	if string(riff[0:4]) != "RIFF" {
		return nil, NewError(ErrorStatusInvalidAudioFormat,
			fmt.Sprintf("invalid audio file format, expected WAV file, got file with header %q", riff[0:4]))
	}
	if string(riff[8:12]) != "WAVE" {
		return nil, NewError(ErrorStatusInvalidAudioFormat,
			fmt.Sprintf("invalid audio file format, expected WAVE form type, got %q", riff[8:12]))
	}

	var format *WAVFormat
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, NewErrorWithCause(ErrorStatusInvalidAudioFormat, "WAV file has no data chunk", err)
		}
		id := string(hdr[0:4])
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, NewError(ErrorStatusInvalidAudioFormat, fmt.Sprintf("fmt chunk too small: %d bytes", size))
			}
			// Only the first 16 bytes are used; extensions are skipped.
			body := make([]byte, min(size, maxFmtChunkSize))
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, NewErrorWithCause(ErrorStatusInvalidAudioFormat, "truncated fmt chunk", err)
			}
			if rest := size - int64(len(body)); rest > 0 {
				if _, err := io.CopyN(io.Discard, r, rest); err != nil {
					return nil, NewErrorWithCause(ErrorStatusInvalidAudioFormat, "truncated fmt chunk", err)
				}
			}
			format = &WAVFormat{
				AudioFormat:   binary.LittleEndian.Uint16(body[0:2]),
				Channels:      int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate:    int(binary.LittleEndian.Uint32(body[4:8])),
				BlockAlign:    int(binary.LittleEndian.Uint16(body[12:14])),
				BitsPerSample: int(binary.LittleEndian.Uint16(body[14:16])),
			}
			if size%2 == 1 {
				if _, err := io.CopyN(io.Discard, r, 1); err != nil {
					return nil, NewErrorWithCause(ErrorStatusInvalidAudioFormat, "truncated fmt chunk", err)
				}
			}

		case "data":
			if format == nil {
				return nil, NewError(ErrorStatusInvalidAudioFormat, "data chunk precedes fmt chunk")
			}
			if format.SampleRate <= 0 || format.BlockAlign <= 0 {
				return nil, NewError(ErrorStatusInvalidAudioFormat,
					fmt.Sprintf("unsupported WAV parameters: sample_rate=%d block_align=%d", format.SampleRate, format.BlockAlign))
			}
			format.DataSize = size
			return format, nil

		default:
			if _, err := io.CopyN(io.Discard, r, size+size%2); err != nil {
				return nil, NewErrorWithCause(ErrorStatusInvalidAudioFormat, "truncated "+id+" chunk", err)
			}
		}
	}
}
