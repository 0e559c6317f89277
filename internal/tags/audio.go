package tags

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goflac "github.com/go-flac/go-flac"
	"github.com/gopxl/beep/v2/flac"
	"github.com/llehouerou/go-m4a"
	"github.com/llehouerou/go-mp3"
)

// ErrInvalidAudio is returned when a file has a supported extension but
// its audio stream cannot be parsed.
var ErrInvalidAudio = errors.New("invalid audio stream")

// ReadAudioInfo reads audio stream properties (duration, format, sample rate)
// without decoding the whole file. It doubles as a validity check: a file
// it rejects cannot be fingerprinted either.
func ReadAudioInfo(path string) (*AudioInfo, error) {
	ext := Ext(path)
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var info *AudioInfo
	switch ext {
	case ExtMP3:
		info, err = readMP3AudioInfo(f)
	case ExtAAC:
		info, err = readADTSAudioInfo(f)
	case ExtFLAC:
		info, err = readFLACStreamInfo(path)
	case ExtOGG, ExtOPUS:
		info, err = readOggAudioInfo(f)
	case ExtM4A:
		info, err = readM4AAudioInfo(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}
	return info, nil
}

// readMP3AudioInfo extracts audio info from an MP3 file.
func readMP3AudioInfo(f *os.File) (*AudioInfo, error) {
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}

	sampleRate := decoder.SampleRate()
	if sampleRate == 0 {
		return nil, errors.New("mp3: invalid sample rate")
	}

	sampleCount := max(decoder.SampleCount(), 0)

	return &AudioInfo{
		Duration:   time.Duration(float64(sampleCount) / float64(sampleRate) * float64(time.Second)),
		Format:     "MP3",
		SampleRate: sampleRate,
	}, nil
}

// adtsSampleRates maps the ADTS sampling frequency index to Hz.
var adtsSampleRates = [...]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
}

// readADTSAudioInfo walks the ADTS frame headers of a raw AAC stream.
// Each frame carries 1024 samples.
func readADTSAudioInfo(f *os.File) (*AudioInfo, error) {
	if err := skipID3v2(f); err != nil {
		return nil, err
	}

	header := make([]byte, 7)
	sampleRate := 0
	frames := 0
	for {
		if _, err := io.ReadFull(f, header); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, err
		}
		if header[0] != 0xff || header[1]&0xf0 != 0xf0 {
			if frames == 0 {
				return nil, errors.New("aac: no ADTS sync word")
			}
			break
		}
		if sampleRate == 0 {
			idx := int(header[2]>>2) & 0x0f
			if idx >= len(adtsSampleRates) {
				return nil, errors.New("aac: invalid sampling frequency index")
			}
			sampleRate = adtsSampleRates[idx]
		}
		frameLen := int(header[3]&0x03)<<11 | int(header[4])<<3 | int(header[5])>>5
		if frameLen < len(header) {
			return nil, errors.New("aac: invalid frame length")
		}
		frames++
		if _, err := f.Seek(int64(frameLen-len(header)), io.SeekCurrent); err != nil {
			return nil, err
		}
	}

	return &AudioInfo{
		Duration:   time.Duration(float64(frames*1024) / float64(sampleRate) * float64(time.Second)),
		Format:     "AAC",
		SampleRate: sampleRate,
	}, nil
}

// readFLACStreamInfo extracts audio info from FLAC streaminfo metadata.
func readFLACStreamInfo(path string) (*AudioInfo, error) {
	flacFile, err := parseFLAC(path)
	if errors.Is(err, errNoFrames) {
		return nil, err
	}
	if err != nil {
		// Files with a prepended ID3 tag
		return readFLACWithBeep(path)
	}

	for _, meta := range flacFile.Meta {
		if meta.Type != goflac.StreamInfo || len(meta.Data) < 18 {
			continue
		}
		data := meta.Data

		// Sample rate is the first 20 bits of bytes 10-12
		sampleRate := int(data[10])<<12 | int(data[11])<<4 | int(data[12])>>4
		// Total samples is 36 bits starting at the low nibble of byte 13
		totalSamples := int64(data[13]&0x0F)<<32 | int64(data[14])<<24 | int64(data[15])<<16 | int64(data[16])<<8 | int64(data[17])

		var duration time.Duration
		if sampleRate > 0 {
			duration = time.Duration(float64(totalSamples) / float64(sampleRate) * float64(time.Second))
		}

		return &AudioInfo{
			Duration:   duration,
			Format:     "FLAC",
			SampleRate: sampleRate,
		}, nil
	}

	return readFLACWithBeep(path)
}

// readFLACWithBeep uses beep's FLAC decoder as fallback.
func readFLACWithBeep(path string) (*AudioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := skipID3v2(f); err != nil {
		return nil, err
	}

	streamer, format, err := flac.Decode(f)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	return &AudioInfo{
		Duration:   format.SampleRate.D(streamer.Len()),
		Format:     "FLAC",
		SampleRate: int(format.SampleRate),
	}, nil
}

// readOggAudioInfo identifies the codec from the first Ogg packet and
// derives the duration from the last page's granule position.
func readOggAudioInfo(f *os.File) (*AudioInfo, error) {
	head := make([]byte, 64)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	head = head[:n]
	if !bytes.HasPrefix(head, []byte("OggS")) {
		return nil, errors.New("ogg: missing capture pattern")
	}

	var format string
	var sampleRate int
	switch {
	case bytes.Contains(head, []byte("OpusHead")):
		// Opus granule positions are always in 48kHz units
		format, sampleRate = "OPUS", 48000
	case bytes.Contains(head, []byte("\x01vorbis")):
		idx := bytes.Index(head, []byte("\x01vorbis"))
		// packet type + "vorbis" (7), version (4), channels (1), rate (4)
		if idx+16 > len(head) {
			return nil, errors.New("ogg: truncated vorbis header")
		}
		format = "VORBIS"
		sampleRate = int(binary.LittleEndian.Uint32(head[idx+12 : idx+16]))
	default:
		return nil, errors.New("ogg: unknown codec")
	}
	if sampleRate <= 0 {
		return nil, errors.New("ogg: invalid sample rate")
	}

	granule, err := lastOggGranule(f)
	if err != nil {
		return nil, err
	}

	return &AudioInfo{
		Duration:   time.Duration(float64(granule) / float64(sampleRate) * float64(time.Second)),
		Format:     format,
		SampleRate: sampleRate,
	}, nil
}

// lastOggGranule returns the granule position of the last Ogg page.
func lastOggGranule(f *os.File) (int64, error) {
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}

	// Read the last 64KB to find the last OGG page
	searchSize := min(int64(65536), fi.Size())
	if _, err := f.Seek(-searchSize, io.SeekEnd); err != nil {
		return 0, err
	}

	buf := make([]byte, searchSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, err
	}
	buf = buf[:n]

	// Search backwards for OggS magic; granule position is at offset 6
	for i := len(buf) - 27; i >= 0; i-- {
		if bytes.Equal(buf[i:i+4], []byte("OggS")) {
			granule := int64(binary.LittleEndian.Uint64(buf[i+6 : i+14]))
			if granule > 0 {
				return granule, nil
			}
		}
	}

	return 0, errors.New("ogg: could not determine duration")
}

// readM4AAudioInfo extracts audio info from an M4A/MP4 file.
func readM4AAudioInfo(f *os.File) (*AudioInfo, error) {
	container, err := m4a.Open(f)
	if err != nil {
		return nil, err
	}

	format := "M4A"
	switch container.Codec() {
	case m4a.CodecAAC:
		format = "AAC"
	case m4a.CodecALAC:
		format = "ALAC"
	case m4a.CodecUnknown:
	}

	return &AudioInfo{
		Duration:   container.Duration(),
		Format:     format,
		SampleRate: int(container.SampleRate()),
	}, nil
}

// skipID3v2 skips an ID3v2 tag if present at the beginning of the file.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	if n < 10 || string(header[0:3]) != id3Magic {
		_, err = r.Seek(0, io.SeekStart)
		return err
	}

	// ID3v2 size is stored as a syncsafe integer in bytes 6-9
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}
