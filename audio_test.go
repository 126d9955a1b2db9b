package bodhi

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// buildWAV returns a 16-bit PCM WAV file holding numSamples samples per
// channel. Extra chunks are inserted between "fmt " and "data".
func buildWAV(sampleRate, channels, numSamples int, extra ...[]byte) []byte {
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	dataSize := numSamples * blockAlign

	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(16))
	binary.Write(&body, binary.LittleEndian, uint16(1))
	binary.Write(&body, binary.LittleEndian, uint16(channels))
	binary.Write(&body, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&body, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&body, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&body, binary.LittleEndian, uint16(bitsPerSample))
	for _, chunk := range extra {
		body.Write(chunk)
	}
	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(dataSize))
	for i := 0; i < dataSize; i++ {
		body.WriteByte(byte(i % 251))
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeTestWAV(t *testing.T, sampleRate, numSamples int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, buildWAV(sampleRate, 1, numSamples), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	return path
}

func TestReadWAVHeader(t *testing.T) {
	data := buildWAV(8000, 1, 4000)
	format, err := ReadWAVHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadWAVHeader failed: %v", err)
	}
	if format.SampleRate != 8000 {
		t.Errorf("expected sample rate 8000, got %d", format.SampleRate)
	}
	if format.Channels != 1 {
		t.Errorf("expected 1 channel, got %d", format.Channels)
	}
	if format.BlockAlign != 2 {
		t.Errorf("expected block align 2, got %d", format.BlockAlign)
	}
	if format.DataSize != 8000 {
		t.Errorf("expected data size 8000, got %d", format.DataSize)
	}
}

func TestReadWAVHeaderSkipsUnknownChunks(t *testing.T) {
	list := []byte("LIST\x03\x00\x00\x00abc\x00")
	data := buildWAV(16000, 2, 10, list)

	format, err := ReadWAVHeader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadWAVHeader failed: %v", err)
	}
	if format.SampleRate != 16000 || format.Channels != 2 {
		t.Errorf("unexpected format: %+v", format)
	}
	if format.DataSize != 40 {
		t.Errorf("expected data size 40, got %d", format.DataSize)
	}
}

func TestReadWAVHeaderErrors(t *testing.T) {
	valid := buildWAV(8000, 1, 10)

	notWave := append([]byte{}, valid...)
	copy(notWave[8:12], "AVI ")

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "not riff", data: []byte("ID3\x04 this is an mp3 file")},
		{name: "not wave", data: notWave},
		{name: "truncated", data: valid[:20]},
		{name: "no data chunk", data: valid[:36]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadWAVHeader(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsErrorStatus(err, ErrorStatusInvalidAudioFormat) {
				t.Errorf("expected invalid_audio_format, got %v", err)
			}
		})
	}
}

func TestWAVFormatChunkSize(t *testing.T) {
	format := WAVFormat{SampleRate: 8000, BlockAlign: 2}
	if got := format.ChunkSize(100 * time.Millisecond); got != 1600 {
		t.Errorf("expected 1600 bytes per 100ms, got %d", got)
	}
	if got := format.FramesFor(time.Nanosecond); got != 1 {
		t.Errorf("expected at least one frame, got %d", got)
	}
}

func TestOpenWAVReadsDataChunk(t *testing.T) {
	path := writeTestWAV(t, 8000, 1000)

	wav, err := openWAV(path)
	if err != nil {
		t.Fatalf("openWAV failed: %v", err)
	}
	defer wav.Close()

	buf := make([]byte, 1600)
	var total int
	for {
		n, err := wav.readChunk(buf)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("readChunk failed: %v", err)
		}
	}
	if total != 2000 {
		t.Errorf("expected 2000 bytes of audio, got %d", total)
	}
}

func TestOpenWAVMissingFile(t *testing.T) {
	_, err := openWAV(filepath.Join(t.TempDir(), "missing.wav"))
	if !IsErrorStatus(err, ErrorStatusFileNotFound) {
		t.Errorf("expected file_not_found, got %v", err)
	}
}

// wavWithFmtSize writes a RIFF header whose fmt chunk declares declared bytes
// but carries body, followed by a small data chunk.
func wavWithFmtSize(declared uint32, body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(0))
	b.WriteString("WAVEfmt ")
	binary.Write(&b, binary.LittleEndian, declared)
	b.Write(body)
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(4))
	b.Write([]byte{0, 0, 0, 0})
	return b.Bytes()
}

func pcmFmtBody(extra int) []byte {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, []uint16{1, 1})
	binary.Write(&b, binary.LittleEndian, []uint32{8000, 16000})
	binary.Write(&b, binary.LittleEndian, []uint16{2, 16})
	b.Write(make([]byte, extra))
	return b.Bytes()
}

func TestReadWAVHeaderLargeFmtChunk(t *testing.T) {
	// 64-byte fmt chunk: the tail past the standard fields is skipped.
	format, err := ReadWAVHeader(bytes.NewReader(wavWithFmtSize(64, pcmFmtBody(48))))
	if err != nil {
		t.Fatalf("ReadWAVHeader failed: %v", err)
	}
	if format.SampleRate != 8000 || format.DataSize != 4 {
		t.Errorf("unexpected format: %+v", format)
	}
}

func TestReadWAVHeaderHugeFmtChunkSize(t *testing.T) {
	_, err := ReadWAVHeader(bytes.NewReader(wavWithFmtSize(0xFFFFFFF0, pcmFmtBody(0))))
	if !IsErrorStatus(err, ErrorStatusInvalidAudioFormat) {
		t.Errorf("expected invalid_audio_format, got %v", err)
	}
}
