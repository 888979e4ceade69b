package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DMarby/filterlab/internal/codec"
	"github.com/DMarby/filterlab/internal/hmac"
	"github.com/DMarby/filterlab/internal/pipeline"
	"github.com/DMarby/filterlab/internal/storage"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if (x/8+y/8)%2 == 0 {
				img.Set(x, y, color.RGBA{200, 40, 10, 255})
			} else {
				img.Set(x, y, color.RGBA{10, 40, 200, 255})
			}
		}
	}

	path := filepath.Join(dir, "checker.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))

	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := New(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTags(t *testing.T) {
	out, err := run(t, "tags")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, len(pipeline.Tags()))
	require.Equal(t, "original", lines[0])
	require.Contains(t, lines, "hough")
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir)
	outPath := filepath.Join(dir, "edges.png")

	_, err := run(t, "render", "--in", in, "--out", outPath, "--tag", "canny", "-p", "canny_lower=10", "-p", "canny_upper=50")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	img, err := codec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())
}

func TestRenderSize(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir)
	outPath := filepath.Join(dir, "small.jpg")

	_, err := run(t, "render", "--in", in, "--out", outPath, "--tag", "gray", "--size", "16")
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	img, err := codec.Decode(data)
	require.NoError(t, err)
	require.Equal(t, 16, img.Bounds().Dx())
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown tag", []string{"render", "--in", in, "--out", filepath.Join(dir, "a.png"), "--tag", "sepia"}},
		{"unknown format", []string{"render", "--in", in, "--out", filepath.Join(dir, "a.gif")}},
		{"invalid parameter", []string{"render", "--in", in, "--out", filepath.Join(dir, "a.png"), "-p", "gaussian_ksize=4"}},
		{"malformed parameter", []string{"render", "--in", in, "--out", filepath.Join(dir, "a.png"), "-p", "gaussian_ksize"}},
		{"missing input", []string{"render", "--in", filepath.Join(dir, "missing.png"), "--out", filepath.Join(dir, "a.png")}},
		{"missing flags", []string{"render"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := run(t, test.args...)
			require.Error(t, err)
		})
	}
}

func TestSaveAll(t *testing.T) {
	dir := t.TempDir()
	in := writeSource(t, dir)
	outDir := filepath.Join(dir, "variants")

	out, err := run(t, "save-all", "--in", in, "--dir", outDir, "--format", "png")
	require.NoError(t, err)
	require.Len(t, strings.Fields(out), len(pipeline.Tags()))

	for _, tag := range pipeline.Tags() {
		_, err := os.Stat(filepath.Join(outDir, storage.VariantName("checker", tag.String(), ".png")))
		require.NoError(t, err, tag.String())
	}
}

func TestParseOverrides(t *testing.T) {
	query, err := parseOverrides([]string{"channel=2", " hough_mode = sobel "})
	require.NoError(t, err)
	require.Equal(t, "2", query.Get("channel"))
	require.Equal(t, "sobel", query.Get("hough_mode"))

	_, err = parseOverrides([]string{"=1"})
	require.Error(t, err)
}

func TestPreset(t *testing.T) {
	dir := t.TempDir()
	preset := filepath.Join(dir, "preset.toml")
	require.NoError(t, os.WriteFile(preset, []byte("gaussian_ksize = 9\n"), 0o644))

	opts := &globalOpts{preset: preset}
	p, err := opts.parameters([]string{"channel=1"})
	require.NoError(t, err)
	require.Equal(t, 9, p.GaussianKsize)
	require.Equal(t, 1, p.Channel)
}

func TestSign(t *testing.T) {
	out, err := run(t, "sign", "/id/1/gray/save", "--key", "secret", "-p", "format=png")
	require.NoError(t, err)

	u, err := url.Parse(strings.TrimSpace(out))
	require.NoError(t, err)

	valid, err := (&hmac.HMAC{Key: []byte("secret")}).Verify(u.Path, u.Query())
	require.NoError(t, err)
	require.True(t, valid)
}
