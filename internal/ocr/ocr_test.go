package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/swiftscan/constants"
)

type call struct {
	name string
	args []string
}

// fakeRunner answers tesseract with canned text and TSV, and "converts" HEIC by
// writing the requested output file.
type fakeRunner struct {
	text  string
	tsv   string
	err   error
	calls []call
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	switch name {
	case "magick", "heif-convert":
		return nil, nil, os.WriteFile(args[len(args)-1], []byte("png"), 0o600)
	}
	if args[len(args)-1] == "tsv" {
		return []byte(f.tsv), nil, nil
	}
	return []byte(f.text), nil, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

const cardText = "Jane Doe\r\n\tProduct  Designer\n-----\n\n\n\nAcme Inc\njane@acme.com\n(555) 123-4567\n"

func TestExtractImage(t *testing.T) {
	r := &fakeRunner{text: cardText}
	e := NewExtractorWithRunner(Config{TesseractLang: "eng+deu", PSM: 11}, r, nil)

	res, err := e.Extract(context.Background(), writeFile(t, "card.JPG", "jpeg"))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\n Product Designer\n\nAcme Inc\njane@acme.com\n(555) 123-4567", res.Text)
	assert.Equal(t, constants.IMAGE, res.SourceType)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "eng+deu", res.Language)
	assert.InDelta(t, 0.9, res.Confidence, 0.001)
	assert.Equal(t, cardText, res.RawText)

	require.Len(t, r.calls, 1)
	assert.Equal(t, "tesseract", r.calls[0].name)
	assert.Equal(t, []string{"stdout", "-l", "eng+deu", "--psm", "11"}, r.calls[0].args[1:])
}

func TestExtractImage_TSVConfidenceBlend(t *testing.T) {
	tsv := strings.Join([]string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t",
		"5\t1\t1\t1\t1\t1\t10\t10\t50\t20\t90\tJane",
		"5\t1\t1\t1\t1\t2\t70\t10\t50\t20\t70\tDoe",
	}, "\n")
	r := &fakeRunner{text: "Jane Doe", tsv: tsv}
	e := NewExtractorWithRunner(Config{EnableTSVConfidence: true}, r, nil)

	res, err := e.Extract(context.Background(), writeFile(t, "card.png", "png"))
	require.NoError(t, err)

	// 0.7*0.80 + 0.3*0.20
	assert.InDelta(t, 0.62, res.Confidence, 0.001)
	assert.Len(t, r.calls, 2)
}

func TestExtractImage_RunnerError(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1")}
	e := NewExtractorWithRunner(Config{}, r, nil)

	res, err := e.Extract(context.Background(), writeFile(t, "card.png", "png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
	assert.Equal(t, []string{"boom"}, res.Warnings)
}

func TestExtract_HEIC(t *testing.T) {
	r := &fakeRunner{text: "Jane Doe"}
	e := NewExtractorWithRunner(Config{HeicConverter: "magick"}, r, nil)

	res, err := e.Extract(context.Background(), writeFile(t, "IMG_0001.HEIC", "heic"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", res.Text)

	require.Len(t, r.calls, 2)
	assert.Equal(t, "magick", r.calls[0].name)
	converted := r.calls[0].args[1]
	assert.Equal(t, converted, r.calls[1].args[0])
	_, statErr := os.Stat(converted)
	assert.True(t, os.IsNotExist(statErr), "converted png should be cleaned up")
}

func TestExtract_HEICUnknownConverter(t *testing.T) {
	e := NewExtractorWithRunner(Config{HeicConverter: "gimp"}, &fakeRunner{}, nil)
	_, err := e.Extract(context.Background(), writeFile(t, "card.heic", "heic"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HEIC not supported")
}

func TestExtract_TextFile(t *testing.T) {
	r := &fakeRunner{}
	e := NewExtractorWithRunner(Config{}, r, nil)

	res, err := e.Extract(context.Background(), writeFile(t, "card.txt", "Jane Doe\r\njane@acme.com\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\njane@acme.com", res.Text)
	assert.Equal(t, "Jane Doe\r\njane@acme.com\r\n", res.RawText)
	assert.Equal(t, "text", res.Method)
	assert.Empty(t, r.calls)
}

func TestExtract_Unsupported(t *testing.T) {
	e := NewExtractorWithRunner(Config{}, &fakeRunner{}, nil)
	_, err := e.Extract(context.Background(), writeFile(t, "card.pdf", "%PDF"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestExtractDataURI(t *testing.T) {
	cache := t.TempDir()
	r := &fakeRunner{text: "Jane Doe"}
	e := NewExtractorWithRunner(Config{ArtifactCacheDir: cache}, r, nil)

	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
	res, err := e.ExtractDataURI(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", res.Text)

	require.Len(t, r.calls, 1)
	assert.Equal(t, ".jpg", filepath.Ext(r.calls[0].args[0]))
	left, err := os.ReadDir(cache)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestDecodeDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))
	tests := []struct {
		name    string
		uri     string
		wantExt string
		wantErr bool
	}{
		{"png", "data:image/png;base64," + payload, "png", false},
		{"jpeg maps to jpg", "data:image/jpeg;base64," + payload, "jpg", false},
		{"unpadded", "data:image/webp;base64," + strings.TrimRight(payload, "="), "webp", false},
		{"no prefix", "image/png;base64," + payload, "", true},
		{"not base64", "data:image/png," + payload, "", true},
		{"not an image", "data:text/plain;base64," + payload, "", true},
		{"garbage payload", "data:image/png;base64,@@@", "", true},
		{"empty payload", "data:image/png;base64,", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ext, err := DecodeDataURI(tt.uri)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadDataURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
			assert.Equal(t, []byte("hello"), data)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "a b\n\nc", Normalize("  a \t  b  \r\n____\nc  \n\n"))
	assert.Equal(t, "a\n\nb", Normalize("a\n\n\n\n\nb"))
}

func TestHeuristicConfidence(t *testing.T) {
	assert.InDelta(t, 0.2, heuristicConfidence("hello"), 0.001)
	assert.InDelta(t, 0.5, heuristicConfidence("jane@acme.com"), 0.001)
	assert.InDelta(t, 0.9, heuristicConfidence("Jane Doe, Acme Inc, jane@acme.com, +1 555 123 4567"), 0.001)
}

func TestExecRunner(t *testing.T) {
	r := execRunner{}

	_, _, err := r.Run(context.Background(), "swiftscan-no-such-binary")
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	_, _, err = r.Run(ctx, "swiftscan-no-such-binary", "card.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...(truncated)", truncate("abcdef", 3))
	// "é" is two bytes; a cut through it drops the partial rune
	assert.Equal(t, "a...(truncated)", truncate("aéb", 2))
}
