// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfpage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/scriptkit/pkg/types"
)

// DefaultPrefix is prepended to the input basename to name rotated output.
const DefaultPrefix = "rotated_"

// Basename returns the final element of path, treating both '/' and '\' as
// separators regardless of the host platform.
func Basename(path string) string {
	path = strings.TrimRight(path, `/\`)
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// OutputPath names the rotated file for input under cfg.
func OutputPath(cfg types.RotateConfig, input string) string {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	name := prefix + Basename(input)
	if cfg.OutDir == "" {
		return name
	}
	return filepath.Join(cfg.OutDir, name)
}

// RotateFile rotates every page of the PDF at input a quarter turn and writes
// the result to output. Progress lines are printed to w. Nothing is written
// to output when any page fails.
func RotateFile(input, output string, w io.Writer) ([]types.PageInfo, error) {
	if w == nil {
		w = io.Discard
	}
	ctx, err := open(input)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "Processing file: %s\n", input)

	rotated := make([]types.PageInfo, 0, ctx.PageCount)
	for nr := 1; nr <= ctx.PageCount; nr++ {
		orig, err := pageInfo(ctx, nr)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", input, err)
		}
		writePage(w, orig)

		p, err := rotatePage(ctx, nr)
		if err != nil {
			return nil, fmt.Errorf("%s: page %d: %w", input, nr, err)
		}
		fmt.Fprintln(w, "    Page Merged")
		fmt.Fprintf(w, "    New page size (2): %s x %s\n", FormatPoints(p.Width), FormatPoints(p.Height))
		rotated = append(rotated, p)
	}

	if err := writeContext(ctx, output); err != nil {
		return nil, fmt.Errorf("writing %s: %w", output, err)
	}
	return rotated, nil
}

// RotateFiles rotates each input in order, writing one output per input as
// named by OutputPath. The first failure aborts the remaining inputs.
func RotateFiles(inputs []string, cfg types.RotateConfig, w io.Writer) ([]string, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}
	if cfg.OutDir != "" {
		if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", cfg.OutDir, err)
		}
	}
	outputs := make([]string, 0, len(inputs))
	for _, in := range inputs {
		out := OutputPath(cfg, in)
		if _, err := RotateFile(in, out, w); err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// rotatePage turns page nr a quarter counter-clockwise. The page gets a new
// media box with width and height swapped and its content is wrapped in
// q/Q with the transform [0 1 -1 0 ury -llx], which maps the old box onto
// the new one.
func rotatePage(ctx *model.Context, nr int) (types.PageInfo, error) {
	d, _, inh, err := ctx.PageDict(nr, false)
	if err != nil {
		return types.PageInfo{}, err
	}
	if d == nil || inh == nil || inh.MediaBox == nil {
		return types.PageInfo{}, fmt.Errorf("no media box")
	}
	box := inh.MediaBox
	width, height := box.Width(), box.Height()

	pre, err := newContentStream(ctx, fmt.Sprintf("q\n0 1 -1 0 %s %s cm\n",
		FormatPoints(box.UR.Y), FormatPoints(-box.LL.X)))
	if err != nil {
		return types.PageInfo{}, err
	}
	post, err := newContentStream(ctx, "\nQ\n")
	if err != nil {
		return types.PageInfo{}, err
	}

	contents := pdftypes.Array{*pre}
	if o, found := d.Find("Contents"); found && o != nil {
		obj, err := ctx.Dereference(o)
		if err != nil {
			return types.PageInfo{}, fmt.Errorf("resolving contents: %w", err)
		}
		switch v := obj.(type) {
		case pdftypes.Array:
			contents = append(contents, v...)
		default:
			if ref, ok := o.(pdftypes.IndirectRef); ok {
				contents = append(contents, ref)
			}
		}
	}
	contents = append(contents, *post)

	newBox := pdftypes.NewRectangle(0, 0, height, width).Array()
	d["Contents"] = contents
	d["MediaBox"] = newBox
	d["CropBox"] = newBox
	d["Rotate"] = pdftypes.Integer(0)
	for _, k := range []string{"TrimBox", "BleedBox", "ArtBox"} {
		delete(d, k)
	}

	return types.PageInfo{Index: nr - 1, Width: width, Height: height}.Swapped(), nil
}

func newContentStream(ctx *model.Context, content string) (*pdftypes.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("creating content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("encoding content stream: %w", err)
	}
	return ctx.IndRefForNewObject(*sd)
}

// writeContext writes ctx to a temporary file next to path and renames it
// into place once the write succeeds.
func writeContext(ctx *model.Context, path string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".rotate-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writeErr := api.WriteContext(ctx, tmpFile)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return writeErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
